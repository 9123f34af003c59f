package factory

import (
	"time"

	"github.com/mcoot/rpsgame/internal/dependencies/mocks"
	"github.com/mcoot/rpsgame/internal/storage/memory"
	"github.com/mcoot/rpsgame/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Store backs every storage role
	Store *memory.Storage

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, store, store, mockClock, mockRandom, testutil.NopLogger())

	return &TestApp{
		App:        app,
		Store:      store,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
