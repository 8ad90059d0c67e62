package ordering

// orderRequestSchema describes the POST /order body.
const orderRequestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["order", "cc_details"],
  "properties": {
    "order": {
      "type": "object",
      "required": ["items", "address", "total_price"],
      "properties": {
        "items": {
          "type": "array",
          "minItems": 1,
          "items": {
            "type": "object",
            "required": ["id", "title", "price"],
            "properties": {
              "id": {"type": "string", "minLength": 1},
              "venue_id": {"type": "string"},
              "title": {"type": "string"},
              "subtitle": {"type": "string"},
              "ingredients": {"type": ["array", "null"], "items": {"type": "string"}},
              "price": {"type": "number", "minimum": 0},
              "category": {"type": "string"}
            }
          }
        },
        "address": {"type": "string", "minLength": 1},
        "total_price": {"type": "number", "minimum": 0}
      }
    },
    "cc_details": {
      "type": "object",
      "required": ["cc_number", "cvv", "expiry"],
      "properties": {
        "cc_number": {"type": "string", "pattern": "^[0-9 ]{12,23}$"},
        "cvv": {"type": "string", "pattern": "^[0-9]{3,4}$"},
        "expiry": {"type": "string", "pattern": "^(0[1-9]|1[0-2])/[0-9]{2}$"}
      }
    }
  }
}`
