package elastic

// DefaultIndexName is the default index used for product documents.
const DefaultIndexName = "shop_products"

// buildIndexMapping returns the full JSON mapping for the products index.
// Text fields fold diacritics so accented and unaccented Vietnamese input
// match the same documents; name carries a keyword subfield for sorting
// and a completion subfield for autocomplete.
func buildIndexMapping() string {
	return `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "analyzer": {
        "folding_analyzer": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "asciifolding"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "id":          { "type": "keyword" },
      "name":        { "type": "text", "analyzer": "folding_analyzer", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 }, "suggest": { "type": "completion", "analyzer": "folding_analyzer" } } },
      "description": { "type": "text", "analyzer": "folding_analyzer" },
      "price":              { "type": "double" },
      "originalPrice":      { "type": "double" },
      "discountPercentage": { "type": "double" },
      "category": {
        "properties": {
          "_id":  { "type": "keyword" },
          "name": { "type": "text", "analyzer": "folding_analyzer", "fields": { "keyword": { "type": "keyword" } } },
          "slug": { "type": "keyword" }
        }
      },
      "images": { "type": "keyword", "index": false },
      "stock":  { "type": "integer" },
      "slug":   { "type": "keyword" },
      "isActive": { "type": "boolean" },
      "featured": { "type": "boolean" },
      "ratings": {
        "properties": {
          "average": { "type": "float" },
          "count":   { "type": "integer" }
        }
      },
      "tags":  { "type": "text", "analyzer": "folding_analyzer", "fields": { "keyword": { "type": "keyword" } } },
      "views": { "type": "long" },
      "sales": { "type": "long" },
      "createdAt": { "type": "date" },
      "updatedAt": { "type": "date" }
    }
  }
}`
}
