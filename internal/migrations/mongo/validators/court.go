package validators

import "go.mongodb.org/mongo-driver/bson"

var CourtValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"facility_id", "name"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id": bson.M{"bsonType": "objectId"},
			"facility_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},
			"name":       bson.M{"bsonType": "string"},
			"sport_type": bson.M{"bsonType": "string"},
			"active":     bson.M{"bsonType": "bool"},
		},
	},
}

var BookingSequenceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"_id", "seq"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id": bson.M{"bsonType": "string"},
			"seq": bson.M{"bsonType": "long"},
		},
	},
}
