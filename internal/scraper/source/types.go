package source

import "github.com/grez-lucas/traffic-scraper/internal/table"

type Status string

const (
	StatusOK           Status = "ok"
	StatusEmpty        Status = "empty"
	StatusLimitReached Status = "limit-reached"
)

type Result struct {
	Status Status
	// Record is set only when Status is StatusOK.
	Record *table.Record
}

func OK(rec *table.Record) Result {
	return Result{Status: StatusOK, Record: rec}
}

func Empty() Result {
	return Result{Status: StatusEmpty}
}

func LimitReached() Result {
	return Result{Status: StatusLimitReached}
}
