package validators

import "go.mongodb.org/mongo-driver/bson"

var verificationStatuses = []string{"unverified", "pending", "verified", "rejected"}

// Verification is optional on users: a missing field means the doctor was
// never put through review.
var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"role"},
		"additionalProperties": true,
		"properties": bson.M{
			"role": bson.M{
				"bsonType": "string",
				"enum":     []string{"doctor", "patient"},
			},
			"verification": bson.M{
				"bsonType": "string",
				"enum":     append([]string{""}, verificationStatuses...),
			},
		},
	},
}

// Profile contents are checked again when slots are computed, so the schema
// only pins down types.
var PublicProfileValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"additionalProperties": true,
		"properties": bson.M{
			"time_zone": bson.M{
				"bsonType":  "string",
				"maxLength": 64,
			},
			"consultation_duration_min": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},
			"currency": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 3,
			},
			"availability": bson.M{
				"bsonType": "object",
				"additionalProperties": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType": "object",
						"required": []string{"start", "end"},
						"properties": bson.M{
							"start": bson.M{"bsonType": "string"},
							"end":   bson.M{"bsonType": "string"},
						},
					},
				},
			},
			"verification": bson.M{
				"bsonType": "string",
				"enum":     verificationStatuses,
			},
		},
	},
}

var PendingVerificationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"requested_at"},
		"properties": bson.M{
			"requested_at": bson.M{"bsonType": "date"},
		},
	},
}
