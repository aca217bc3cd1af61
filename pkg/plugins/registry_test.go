package plugins

import (
	"testing"

	"github.com/sbrunomello/pce-engine/pkg/models"
	"github.com/stretchr/testify/assert"
)

type stubScorer struct{ score float64 }

func (s stubScorer) ValueScore(models.StateSnapshot, models.Event) (float64, []string) {
	return s.score, nil
}

func TestRegisterThenGet(t *testing.T) {
	r := NewRegistry()
	r.Register(Domain{Name: "trader", ValueScorer: stubScorer{score: 0.9}})

	d, ok := r.Get("trader")
	assert.True(t, ok)
	assert.NotNil(t, d.ValueScorer)
	score, _ := d.ValueScorer.ValueScore(nil, models.Event{})
	assert.Equal(t, 0.9, score)
}

func TestGetUnknownDomainIsNotOK(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Get("unregistered")
	assert.False(t, ok)
}

func TestRegisterReplacesExistingDomain(t *testing.T) {
	r := NewRegistry()
	r.Register(Domain{Name: "trader", ValueScorer: stubScorer{score: 0.1}})
	r.Register(Domain{Name: "trader", ValueScorer: stubScorer{score: 0.8}})

	d, ok := r.Get("trader")
	assert.True(t, ok)
	score, _ := d.ValueScorer.ValueScore(nil, models.Event{})
	assert.Equal(t, 0.8, score)
}
