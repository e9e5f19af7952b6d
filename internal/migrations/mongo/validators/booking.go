package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"facility_id",
			"court_id",
			"date",
			"payment_method",
			"status",
			"contact_name",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"code": bson.M{
				"bsonType":  "string",
				"minLength": 12,
				"maxLength": 20,
			},

			"facility_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"court_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"date": bson.M{
				"bsonType":  "string",
				"minLength": 10,
				"maxLength": 10,
			},

			"time_slots": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType":  "string",
					"minLength": 11,
					"maxLength": 11,
				},
			},

			"start_time": bson.M{
				"bsonType": "date",
			},

			"end_time": bson.M{
				"bsonType": "date",
			},

			"total_amount": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"payment_method": bson.M{
				"bsonType": "string",
				"enum": []string{
					"cash",
					"online",
				},
			},

			"payment_status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"unpaid",
					"paid",
					"refund_pending",
				},
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"pending_payment",
					"hold",
					"confirmed",
					"expired",
					"cancelled",
					"completed",
				},
			},

			"hold_until": bson.M{
				"bsonType": "date",
			},

			"contact_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"contact_phone": bson.M{
				"bsonType": "string",
			},

			"cancelled_at": bson.M{
				"bsonType": "date",
			},

			"cancel_reason": bson.M{
				"bsonType": "string",
			},

			"completed_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
