package genstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccumulatorCommitScenario(t *testing.T) {
	// Three chunks then complete{full_bio:"Hello world!"}.
	var acc Accumulator

	acc.Begin("Old bio")
	acc.Append("Hello")
	acc.Append(" world")
	acc.Append("!")

	assert.Equal(t, "Hello world!", acc.Content())

	committed := acc.Commit("Hello world!")
	assert.Equal(t, "Hello world!", committed)
	assert.Equal(t, PhaseCommitted, acc.Phase())
}

func TestAccumulatorRollbackScenario(t *testing.T) {
	// Pre-stream content "Old bio", two chunks, then an error.
	var acc Accumulator

	acc.Begin("Old bio")
	acc.Append("New ")
	acc.Append("draft")

	restored := acc.Rollback()
	assert.Equal(t, "Old bio", restored)
	assert.Equal(t, PhaseRolledBack, acc.Phase())
}

func TestAccumulatorRollbackIsByteExact(t *testing.T) {
	var acc Accumulator

	original := "café — résumé\n\ttrailing  "
	acc.Begin(original)
	acc.Append("replacement text")

	assert.Equal(t, original, acc.Rollback())
}

func TestAccumulatorCommitFallsBackToChunks(t *testing.T) {
	var acc Accumulator

	acc.Begin("")
	acc.Append("a")
	acc.Append("b")

	assert.Equal(t, "ab", acc.Commit(""))
}

func TestAccumulatorRestartDropsStaleChunks(t *testing.T) {
	var acc Accumulator

	acc.Begin("Old bio")
	acc.Append("stale")
	acc.Restart()
	acc.Append("fresh")

	assert.Equal(t, "fresh", acc.Content())
	assert.Equal(t, "Old bio", acc.Snapshot())
}

func TestAccumulatorIgnoresAppendsOutsideStreaming(t *testing.T) {
	var acc Accumulator

	acc.Append("before begin")
	assert.Equal(t, "", acc.Content())
	assert.Equal(t, PhaseIdle, acc.Phase())

	acc.Begin("x")
	acc.Append("ok")
	acc.Commit("")
	acc.Append("after commit")
	assert.Equal(t, "ok", acc.Content())
}

func TestAccumulatorBeginResetsPreviousSession(t *testing.T) {
	var acc Accumulator

	acc.Begin("first")
	acc.Append("aaa")
	acc.Rollback()

	acc.Begin("second")
	assert.Equal(t, "", acc.Content())
	assert.Equal(t, "second", acc.Snapshot())
	assert.Equal(t, PhaseStreaming, acc.Phase())
}
