package output

import (
	"encoding/json"

	"github.com/rpcprobe/rpcprobe/internal/protocol"
)

// StepRecord is one line of --json output.
type StepRecord struct {
	Label     string          `json:"label"`
	Method    string          `json:"method"`
	Response  json.RawMessage `json:"response"`
	Status    int             `json:"status"`
	ElapsedMS int64           `json:"elapsed_ms"`
}

func NewStepRecord(label string, res *protocol.Result) *StepRecord {
	return &StepRecord{
		Label:     label,
		Method:    res.Request.Method,
		Response:  json.RawMessage(res.Body),
		Status:    res.StatusCode,
		ElapsedMS: res.Elapsed.Milliseconds(),
	}
}

func (r *StepRecord) JSON() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
