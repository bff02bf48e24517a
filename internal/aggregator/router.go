package aggregator

import (
	"strings"

	"github.com/neighborhood-lab/care-commons/pkg/care"
)

// defaultStateAggregators is the built-in state code → aggregator type
// routing table, used for any state absent from the configured fanout
// override.
var defaultStateAggregators = map[string][]care.AggregatorType{
	"TX": {care.AggregatorHHAeXchange},
	"FL": {care.AggregatorHHAeXchange},
	"OH": {care.AggregatorSandata},
	"PA": {care.AggregatorSandata},
	"NC": {care.AggregatorSandata},
	"AZ": {care.AggregatorSandata},
	"GA": {care.AggregatorTellus},
}

// route resolves the aggregator types a completed EVV record for stateCode
// must be submitted to. fanout, if non-nil for stateCode, overrides the
// built-in default (used for FL's optional multi-aggregator configuration).
func route(stateCode string, fanout map[string][]string) ([]care.AggregatorType, error) {
	code := strings.ToUpper(stateCode)

	if override, ok := fanout[code]; ok && len(override) > 0 {
		types := make([]care.AggregatorType, 0, len(override))
		for _, t := range override {
			types = append(types, care.AggregatorType(strings.ToUpper(t)))
		}
		return types, nil
	}

	types, ok := defaultStateAggregators[code]
	if !ok {
		return nil, care.NewValidationError("serviceAddress.state", "no aggregator configured for state "+code)
	}
	return types, nil
}
