package memory_test

import (
	"testing"

	"github.com/aretw0/debrief/pkg/adapters/memory"
	"github.com/aretw0/debrief/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStateStoreContract(t, store)
}

func TestMemorySummarySink_Contract(t *testing.T) {
	ports.RunSummarySinkContract(t, memory.NewSummarySink())
}
