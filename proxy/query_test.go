package proxy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deblockt/r2dbc-proxy/rdbc"
)

func queryFixture(t *testing.T, results ...rdbc.Result) (*recordingListener, *QueryExecution, rdbc.Publisher[rdbc.Result]) {
	t.Helper()

	listener := &recordingListener{}
	cfg, err := NewConfig(WithListeners(listener), WithClock(newTickingClock(5*time.Millisecond)))
	require.NoError(t, err)

	exec := newQueryExecution(
		ExecutionTypeStatement,
		&ConnectionInfo{ConnectionID: "conn-1"},
		[]QueryInfo{{Query: "SELECT 1"}},
	)

	return listener, exec, instrumentQueryExecution(cfg, exec, rdbc.Just(results...))
}

func Test_QueryExecution_SuccessRequiresAtLeastOneResult(t *testing.T) {
	listener, exec, stream := queryFixture(t, &fakeResult{}, &fakeResult{})

	results, err := rdbc.Collect(context.Background(), stream)

	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 1, listener.beforeQueryCount)
	assert.Equal(t, 1, listener.afterQueryCount)
	assert.True(t, listener.lastQuerySuccess)
	assert.Equal(t, 2, exec.CurrentResultIndex, "holds the element count after termination")
	assert.Positive(t, listener.lastQueryElapsed)
}

func Test_QueryExecution_EmptyStreamCompletesUnsuccessfulWithoutError(t *testing.T) {
	listener, exec, stream := queryFixture(t)

	results, err := rdbc.Collect(context.Background(), stream)

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 1, listener.afterQueryCount)
	assert.False(t, listener.lastQuerySuccess)
	assert.NoError(t, listener.lastQueryErr)
	assert.Zero(t, exec.CurrentResultIndex)
	assert.Zero(t, listener.eachResultCount)
}

func Test_QueryExecution_EachResultSeesZeroBasedIndex(t *testing.T) {
	listener, _, stream := queryFixture(t, &fakeResult{}, &fakeResult{}, &fakeResult{})

	_, err := rdbc.Collect(context.Background(), stream)

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, listener.eachIndexes)
	assert.Equal(t, []bool{true, true, true}, listener.eachSuccesses)
}

func Test_QueryExecution_StreamFailureCapturedOnRecord(t *testing.T) {
	listener := &recordingListener{}
	cfg, err := NewConfig(WithListeners(listener))
	require.NoError(t, err)

	exec := newQueryExecution(ExecutionTypeStatement, nil, []QueryInfo{{Query: "SELECT 1"}})
	failure := errors.New("syntax error")

	stream := instrumentQueryExecution(cfg, exec, rdbc.ErrorPublisher[rdbc.Result](failure))

	_, err = rdbc.Collect(context.Background(), stream)

	require.ErrorIs(t, err, failure)
	assert.Equal(t, 1, listener.afterQueryCount)
	assert.ErrorIs(t, listener.lastQueryErr, failure)
	assert.False(t, listener.lastQuerySuccess)
}

func Test_QueryExecution_CancellationFiresAfterHookOnce(t *testing.T) {
	listener, _, stream := queryFixture(t, &fakeResult{}, &fakeResult{})

	// First consumes one element, then cancels the rest of the stream.
	_, err := rdbc.First(context.Background(), stream)

	require.NoError(t, err)
	assert.Equal(t, 1, listener.afterQueryCount)
	assert.True(t, listener.lastQuerySuccess, "one element was observed before cancellation")
	assert.Equal(t, 1, listener.eachResultCount)
}

func Test_QueryExecution_EmittedResultsAreWrapped(t *testing.T) {
	raw := &fakeResult{rowsUpdated: 7}
	_, _, stream := queryFixture(t, raw)

	results, err := rdbc.Collect(context.Background(), stream)

	require.NoError(t, err)
	require.Len(t, results, 1)

	proxied, ok := results[0].(*resultProxy)
	require.True(t, ok, "emitted results pass back through the proxy mechanism")
	assert.Same(t, raw, proxied.Unwrap())

	rows, err := rdbc.First(context.Background(), proxied.RowsUpdated())
	require.NoError(t, err)
	assert.Equal(t, int64(7), rows)
}
