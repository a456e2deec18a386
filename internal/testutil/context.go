package testutil

import (
	"context"

	"github.com/convowin/convowin/internal/types"
)

// TestActor is stamped on audit columns written by tests
const TestActor = "test-suite"

func SetupContext() context.Context {
	ctx := types.SetRequestID(context.Background(), types.GenerateUUID())
	return types.SetActor(ctx, TestActor)
}
