package support

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/deblockt/r2dbc-proxy/proxy"
)

var json = jsoniter.ConfigFastest

// methodRecord is the JSON snapshot of a method execution record.
type methodRecord struct {
	Method        string `json:"method"`
	DeclaringType string `json:"declaringType"`
	ConnectionID  string `json:"connectionId,omitempty"`
	GoroutineID   uint64 `json:"goroutineId"`
	Phase         string `json:"phase"`
	TimeMS        int64  `json:"timeMs"`
	Error         string `json:"error,omitempty"`
}

// queryRecord is the JSON snapshot of a query execution record.
type queryRecord struct {
	Type         string       `json:"type"`
	ConnectionID string       `json:"connectionId,omitempty"`
	GoroutineID  uint64       `json:"goroutineId"`
	Phase        string       `json:"phase"`
	Success      bool         `json:"success"`
	Results      int          `json:"results"`
	TimeMS       int64        `json:"timeMs"`
	Error        string       `json:"error,omitempty"`
	Queries      []queryEntry `json:"queries"`
}

type queryEntry struct {
	Query    string         `json:"query"`
	Bindings []bindingEntry `json:"bindings,omitempty"`
}

type bindingEntry struct {
	Index int    `json:"index"`
	Name  string `json:"name,omitempty"`
	Value string `json:"value"`
}

// JSONFormatter renders execution records as compact JSON objects, for log
// pipelines that ingest structured lines.
type JSONFormatter struct{}

// NewJSONFormatter creates a JSONFormatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// FormatMethod renders a method execution record as one JSON object.
func (f *JSONFormatter) FormatMethod(exec *proxy.MethodExecution) (string, error) {
	record := methodRecord{
		Method:        exec.Method.Name,
		DeclaringType: exec.Method.DeclaringType,
		GoroutineID:   exec.GoroutineID,
		Phase:         exec.Phase.String(),
		TimeMS:        exec.Elapsed.Milliseconds(),
	}

	if exec.ConnectionInfo != nil {
		record.ConnectionID = exec.ConnectionInfo.ConnectionID
	}
	if exec.Err != nil {
		record.Error = exec.Err.Error()
	}

	return json.MarshalToString(record)
}

// FormatQuery renders a query execution record as one JSON object.
func (f *JSONFormatter) FormatQuery(exec *proxy.QueryExecution) (string, error) {
	record := queryRecord{
		Type:        exec.Type.String(),
		GoroutineID: exec.GoroutineID,
		Phase:       exec.Phase.String(),
		Success:     exec.Success,
		Results:     exec.CurrentResultIndex,
		TimeMS:      exec.Elapsed.Milliseconds(),
		Queries:     make([]queryEntry, 0, len(exec.Queries)),
	}

	if exec.ConnectionInfo != nil {
		record.ConnectionID = exec.ConnectionInfo.ConnectionID
	}
	if exec.Err != nil {
		record.Error = exec.Err.Error()
	}

	for _, q := range exec.Queries {
		entry := queryEntry{Query: q.Query}
		for _, binding := range q.Bindings {
			entry.Bindings = append(entry.Bindings, bindingEntry{
				Index: binding.Index,
				Name:  binding.Name,
				Value: fmt.Sprintf("%v", binding.Value),
			})
		}
		record.Queries = append(record.Queries, entry)
	}

	return json.MarshalToString(record)
}
