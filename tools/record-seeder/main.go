// record-seeder fabricates DMS-style CDC envelopes and drops them into the
// raw zone so the pipeline can be exercised end to end without a live
// replication task. Payload framing is deliberately messy (newlines, no
// separator, arrays, optional gzip) to match what replication actually emits.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	endpoint  = flag.String("endpoint", "localhost:9000", "object store endpoint")
	accessKey = flag.String("access-key", "minioadmin", "object store access key")
	secretKey = flag.String("secret-key", "minioadmin", "object store secret key")
	useSSL    = flag.Bool("ssl", false, "use TLS for the object store")
	bucket    = flag.String("bucket", "smartstream-lake", "data lake bucket")
	rawPrefix = flag.String("raw-prefix", "data/raw/", "raw zone prefix")
	schema    = flag.String("schema", "finance", "source schema name")
	table     = flag.String("table", "transactions", "source table name")
	objects   = flag.Int("objects", 10, "number of raw objects to write")
	batchSize = flag.Int("batch-size", 25, "records per object")
	dupRate   = flag.Float64("dup-rate", 0.2, "fraction of duplicated records per object")
	compress  = flag.Bool("gzip", false, "gzip the raw objects")
)

func main() {
	flag.Parse()

	gofakeit.Seed(time.Now().UnixNano())

	client, err := minio.New(*endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(*accessKey, *secretKey, ""),
		Secure: *useSSL,
	})
	if err != nil {
		log.Fatalf("Failed to create object store client: %v", err)
	}

	log.Printf("Starting record seeder:")
	log.Printf("  Endpoint: %s", *endpoint)
	log.Printf("  Bucket: %s", *bucket)
	log.Printf("  Route: %s.%s", *schema, *table)
	log.Printf("  Objects: %d x %d records", *objects, *batchSize)
	log.Printf("  Duplicate rate: %.0f%%", *dupRate*100)

	ctx := context.Background()
	total := 0

	for i := 0; i < *objects; i++ {
		body := buildPayload(*schema, *table, *batchSize, *dupRate)

		key := fmt.Sprintf("%s%s/%s/%s/%s.json",
			*rawPrefix, *schema, *table,
			time.Now().UTC().Format("2006-01-02"),
			uuid.New(),
		)

		data := []byte(body)
		if *compress {
			var buf bytes.Buffer
			zw := gzip.NewWriter(&buf)
			if _, err := zw.Write(data); err != nil {
				log.Fatalf("Failed to compress payload: %v", err)
			}
			if err := zw.Close(); err != nil {
				log.Fatalf("Failed to compress payload: %v", err)
			}
			data = buf.Bytes()
			key += ".gz"
		}

		_, err := client.PutObject(ctx, *bucket, key, bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{ContentType: "application/json"})
		if err != nil {
			log.Fatalf("Failed to write raw object: %v", err)
		}

		total += *batchSize
		log.Printf("Wrote %s (%d records)", key, *batchSize)
	}

	log.Printf("Done: %d records across %d objects", total, *objects)
}

// buildPayload concatenates envelopes with inconsistent framing: some joined
// by newlines, some back to back, occasionally pretty-printed.
func buildPayload(schema, table string, count int, dupRate float64) string {
	var sb strings.Builder
	var prev string

	for i := 0; i < count; i++ {
		var line string
		if prev != "" && rand.Float64() < dupRate {
			line = prev
		} else {
			line = marshalEnvelope(makeEnvelope(schema, table))
		}
		prev = line

		sb.WriteString(line)
		switch rand.Intn(3) {
		case 0:
			sb.WriteString("\n")
		case 1:
			sb.WriteString(" ")
		default:
			// no separator at all
		}
	}

	return sb.String()
}

func makeEnvelope(schema, table string) map[string]any {
	ops := []string{"insert", "update", "delete"}

	return map[string]any{
		"data": map[string]any{
			"id":         gofakeit.Number(1, 100000),
			"name":       gofakeit.Name(),
			"city":       gofakeit.City(),
			"amount":     gofakeit.Price(5, 5000),
			"currency":   gofakeit.CurrencyShort(),
			"created_at": gofakeit.DateRange(time.Now().AddDate(0, -6, 0), time.Now()).UTC().Unix(),
		},
		"metadata": map[string]any{
			"timestamp":      time.Now().UTC().Format(time.RFC3339),
			"record-type":    "data",
			"operation":      ops[rand.Intn(len(ops))],
			"schema-name":    schema,
			"table-name":     table,
			"transaction-id": gofakeit.Number(1000000, 9999999),
		},
	}
}

func marshalEnvelope(env map[string]any) string {
	var (
		out []byte
		err error
	)
	if rand.Intn(4) == 0 {
		out, err = json.MarshalIndent(env, "", "  ")
	} else {
		out, err = json.Marshal(env)
	}
	if err != nil {
		log.Fatalf("Failed to marshal envelope: %v", err)
	}
	return string(out)
}
