//go:build integration

package repository

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Dhruvipatel1708/chatbot/internal/database"
)

// Run with: MONGODB_TEST_URI=mongodb://localhost:27017 go test -tags integration ./internal/repository/
func TestMongoRepository_Integration(t *testing.T) {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}

	runRepositoryContract(t, func(t *testing.T) Repository {
		ctx := context.Background()
		client, db, err := database.InitMongo(ctx, uri, "chatbot_test_"+uuid.NewString()[:8])
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = db.Drop(context.Background())
			_ = client.Disconnect(context.Background())
		})
		return NewMongoRepository(db)
	})
}
