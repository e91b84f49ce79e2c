package tools

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// CurrentTimeArgs são os argumentos da ferramenta current_time
type CurrentTimeArgs struct {
	Timezone string `json:"timezone,omitempty" jsonschema:"IANA timezone name such as UTC or America/Sao_Paulo; defaults to UTC"`
}

// CurrentTimeResult é o resultado da ferramenta current_time
type CurrentTimeResult struct {
	Timezone string `json:"timezone"`
	Time     string `json:"time"`
	Weekday  string `json:"weekday"`
}

// CurrentTime retorna o instante now no fuso informado
func CurrentTime(now time.Time, timezone string) (CurrentTimeResult, error) {
	timezone = strings.TrimSpace(timezone)
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return CurrentTimeResult{}, errors.Wrapf(err, "unknown timezone %q", timezone)
	}
	local := now.In(loc)
	return CurrentTimeResult{
		Timezone: timezone,
		Time:     local.Format(time.RFC3339),
		Weekday:  local.Weekday().String(),
	}, nil
}
