package run

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AzmayenSabil/Missing-Link-sub001/internal/models"
)

func TestMemoryStoreCreateRejectsDuplicates(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Create(&models.RunSession{ID: "a"}))
	assert.ErrorIs(t, s.Create(&models.RunSession{ID: "a"}), ErrDuplicateRun)
}

func TestMemoryStoreGetReturnsSnapshot(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Create(&models.RunSession{ID: "a", Status: models.StatusCreated}))

	before, ok := s.Get("a")
	require.True(t, ok)

	s.Update("a", func(sess *models.RunSession) {
		sess.Status = models.StatusComplete
	})

	// the earlier snapshot is unaffected by the later write
	assert.Equal(t, models.StatusCreated, before.Status)
	after, _ := s.Get("a")
	assert.Equal(t, models.StatusComplete, after.Status)
}

func TestMemoryStoreUpdateUnknownID(t *testing.T) {
	s := NewMemoryStore()
	assert.False(t, s.Update("ghost", func(*models.RunSession) {}))
	_, ok := s.Get("ghost")
	assert.False(t, ok)
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	base := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Create(&models.RunSession{
			ID:        fmt.Sprintf("run-%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	out := s.List()
	require.Len(t, out, 3)
	assert.Equal(t, "run-2", out[0].ID)
	assert.Equal(t, "run-0", out[2].ID)
}

func TestMemoryStoreConcurrentReadsAndWrites(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Create(&models.RunSession{ID: "a"}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Update("a", func(sess *models.RunSession) {
				sess.Warnings = append([]string{}, "w")
			})
		}()
		go func() {
			defer wg.Done()
			_, _ = s.Get("a")
			_ = s.List()
		}()
	}
	wg.Wait()
}
