// Package notify receives bucket-notification events for the raw zone.
package notify

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// Notification identifies one created object.
type Notification struct {
	Bucket string
	Key    string
}

// Batch is the S3/MinIO-compatible bucket-notification payload.
type Batch struct {
	Records []EventRecord `json:"Records"`
}

// EventRecord is one object-created event within a Batch.
type EventRecord struct {
	EventName string `json:"eventName"`
	S3        struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key string `json:"key"`
		} `json:"object"`
	} `json:"s3"`
}

// ParseBatch decodes a bucket-notification payload into notifications.
// Object keys arrive URL-encoded in S3 events and are decoded here; a key
// that fails decoding is passed through as-is.
func ParseBatch(data []byte) ([]Notification, error) {
	var batch Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("parse notification batch: %w", err)
	}

	notifs := make([]Notification, 0, len(batch.Records))
	for _, rec := range batch.Records {
		key := rec.S3.Object.Key
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
		notifs = append(notifs, Notification{
			Bucket: rec.S3.Bucket.Name,
			Key:    key,
		})
	}
	return notifs, nil
}
