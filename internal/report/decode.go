// Package report decodes the structured JSON result file written by the
// Postman CLI / newman json reporter.
//
// Two incompatible generations of the document exist. The shape is detected
// once, upfront, and each generation has its own decode function; both yield
// the same Decoded value.
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/AndreyAkinshin/automatest/internal/result"
	"github.com/AndreyAkinshin/automatest/internal/schema"
)

// Schema identifies the detected report generation.
type Schema string

const (
	// SchemaNone means no report was decoded.
	SchemaNone Schema = "none"
	// SchemaV1 is the run.stats + run.executions[*].assertions generation.
	SchemaV1 Schema = "v1"
	// SchemaV2 is the run.summary + run.executions[*].tests generation.
	SchemaV2 Schema = "v2"
)

// Fallback labels used when a report omits a name.
const (
	UnknownRequestName = "unknown"
	UnnamedTestName    = "test"
)

// Decoded is the canonical form of a structured report.
type Decoded struct {
	Schema         Schema
	Items          []result.Request
	TotalRequests  int
	FailedRequests int
	TotalTests     int
	FailedTests    int
	// Reason is set when the document exists but could not be read.
	Reason string
}

// Decode parses a report document. present is false when the runner never
// produced the file. Decoding never fails: unreadable documents yield an
// empty result with Reason set, and unreadable fields degrade to defaults.
func Decode(data []byte, present bool) Decoded {
	if !present {
		return Decoded{Schema: SchemaNone}
	}

	doc, err := parseDocument(data)
	if err != nil {
		return Decoded{
			Schema: SchemaNone,
			Reason: fmt.Sprintf("failed to read report: %v", err),
		}
	}
	if len(doc) == 0 {
		return Decoded{Schema: SchemaNone}
	}

	if schema.IsReportV2(doc) {
		return decodeV2(asObject(doc["run"]))
	}
	return decodeV1(asObject(doc["run"]))
}

// parseDocument decodes data as a single JSON object. Numbers are kept as
// json.Number so integral and fractional values can be told apart. A JSON
// null yields a nil map without error.
func parseDocument(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty document")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}

	switch x := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return x, nil
	default:
		return nil, fmt.Errorf("top-level value is %s, not an object", jsonKind(v))
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case []any:
		return "an array"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// decodeV2 reads the summary/executions generation. The summary carries no
// failed-request count, so FailedRequests stays zero. FailedTests starts from
// the summary value and is incremented for every failing test found in the
// executions; the reconciler only replaces it when the total is zero.
func decodeV2(run map[string]any) Decoded {
	summary := run["summary"]
	d := Decoded{
		Schema:        SchemaV2,
		Items:         make([]result.Request, 0),
		TotalRequests: countAt(summary, "executedRequests", "executed"),
		TotalTests:    countAt(summary, "tests", "executed"),
		FailedTests:   countAt(summary, "tests", "failed"),
	}

	for _, raw := range asArray(run["executions"]) {
		ex := asObject(raw)

		req := asObject(firstTruthy(ex["requestExecuted"], ex["request"]))
		item := result.Request{
			Name:       labelOf(firstTruthy(req["name"]), UnknownRequestName),
			Assertions: []result.Assertion{},
		}

		if code, ok := strictInt(asObject(ex["response"])["code"]); ok {
			item.StatusCode = result.IntPtr(code)
		}

		for _, rawTest := range asArray(ex["tests"]) {
			test := asObject(rawTest)
			status, _ := test["status"].(string)
			a := result.Assertion{
				Name:   labelOf(firstTruthy(test["name"]), UnnamedTestName),
				Passed: status == "passed",
			}
			item.Assertions = append(item.Assertions, a)
			if !a.Passed {
				d.FailedTests++
			}
		}

		d.Items = append(d.Items, item)
	}

	return d
}

// decodeV1 reads the stats/assertions generation.
func decodeV1(run map[string]any) Decoded {
	stats := run["stats"]
	d := Decoded{
		Schema:         SchemaV1,
		Items:          make([]result.Request, 0),
		TotalRequests:  countAt(stats, "requests", "total"),
		FailedRequests: countAt(stats, "requests", "failed"),
		TotalTests:     countAt(stats, "tests", "total"),
		FailedTests:    countAt(stats, "tests", "failed"),
	}

	for _, raw := range asArray(run["executions"]) {
		ex := asObject(raw)

		item := result.Request{
			Name:       labelOf(firstTruthy(asObject(ex["item"])["name"]), UnknownRequestName),
			Assertions: []result.Assertion{},
		}

		if code, ok := looseInt(asObject(ex["response"])["code"]); ok {
			item.StatusCode = result.IntPtr(code)
		}

		for _, rawAssertion := range asArray(ex["assertions"]) {
			a := asObject(rawAssertion)
			item.Assertions = append(item.Assertions, result.Assertion{
				Name:   labelOf(firstTruthy(a["assertion"]), UnnamedTestName),
				Passed: !truthy(a["error"]),
			})
		}

		d.Items = append(d.Items, item)
	}

	return d
}
