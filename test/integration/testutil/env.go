//go:build integration

package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"drxcare/pkg/client"
)

const DefaultHealthCheckTimeout = 30 * time.Second

// TestEnv points at running services. The bookings service must run with
// STRIPE_DRY_RUN=true against the same database.
type TestEnv struct {
	MongoURI        string
	DatabaseName    string
	BookingsURL     string
	VerificationURL string
}

func NewTestEnv() *TestEnv {
	return &TestEnv{
		MongoURI:        getEnv("TEST_MONGO_URI", DefaultMongoURI),
		DatabaseName:    getEnv("TEST_DB_NAME", DefaultDatabaseName),
		BookingsURL:     getEnv("TEST_BOOKINGS_URL", "http://localhost:8080"),
		VerificationURL: getEnv("TEST_VERIFICATION_URL", "http://localhost:8081"),
	}
}

// Setup cleans the database and waits for the service at baseURL.
func (e *TestEnv) Setup(t *testing.T, baseURL string) (*MongoHelper, *client.HttpClient) {
	t.Helper()

	mongo := NewMongoHelper(t, e.MongoURI, e.DatabaseName)
	mongo.CleanDatabase(t)

	c := client.NewHttpClient(baseURL)
	ctx, cancel := context.WithTimeout(context.Background(), DefaultHealthCheckTimeout)
	defer cancel()
	if err := c.WaitForHealthy(ctx); err != nil {
		t.Fatalf("service at %s is not healthy: %v", baseURL, err)
	}

	t.Cleanup(func() {
		mongo.CleanDatabase(t)
		mongo.Close(t)
	})
	return mongo, c
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
