package etl

import (
	"context"
	"fmt"
	"time"
)

// Engine runs import jobs: source.Read → transform chain → destination.Write.
type Engine struct {
	Dest Destination
}

// Run executes an import job end-to-end.
func (e *Engine) Run(ctx context.Context, job *ImportJob) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{JobID: job.ID}
	fail := func(stage string, err error) (*RunResult, error) {
		result.Status = StatusError
		result.Error = fmt.Sprintf("%s: %s", stage, err)
		result.Duration = time.Since(start)
		return result, fmt.Errorf("%s: %w", stage, err)
	}

	source, err := GetSource(job.SourceType)
	if err != nil {
		return fail("source", err)
	}

	schema, err := source.Discover(ctx, job.SourceCfg)
	if err != nil {
		return fail("discover", err)
	}

	transformers, err := BuildTransformers(job.Transforms, job.DedupeKey)
	if err != nil {
		return fail("transforms", err)
	}

	recCh, errCh := source.Read(ctx, job.SourceCfg)
	var records []Record
	for rec := range recCh {
		result.RowsRead++
		if out, keep := ApplyTransformers(rec, transformers); keep {
			records = append(records, out)
		}
	}
	if err := <-errCh; err != nil {
		return fail("read", err)
	}
	records = ApplyBatchSort(records, transformers)

	// Transforms may add, drop or rename columns.
	outputSchema := deriveSchema(records, schema)

	written, err := e.Dest.Write(ctx, job.TargetCollectionID, outputSchema, records, job.SyncMode)
	if err != nil {
		result.RowsWritten = written
		return fail("write", err)
	}

	result.Status = StatusSuccess
	result.RowsWritten = written
	result.Duration = time.Since(start)
	return result, nil
}

// Preview reads at most maxRows records from a source without writing anything.
func (e *Engine) Preview(ctx context.Context, sourceType string, cfg SourceConfig, maxRows int) ([]Record, *Schema, error) {
	source, err := GetSource(sourceType)
	if err != nil {
		return nil, nil, err
	}
	schema, err := source.Discover(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("discover: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	recCh, errCh := source.Read(ctx, cfg)
	records := []Record{}
	for rec := range recCh {
		records = append(records, rec)
		if len(records) >= maxRows {
			cancel()
			break
		}
	}
	// Let the reader observe cancellation and exit.
	for range recCh {
	}
	if err := <-errCh; err != nil && ctx.Err() == nil {
		return records, schema, err
	}
	return records, schema, nil
}

// deriveSchema builds the output schema from the keys present in the
// transformed records, keeping source type hints where a name survived.
func deriveSchema(records []Record, source *Schema) *Schema {
	if len(records) == 0 {
		return source
	}
	hints := map[string]Field{}
	if source != nil {
		for _, f := range source.Fields {
			hints[f.Name] = f
		}
	}

	inferred := InferSchema(records)
	for i, f := range inferred.Fields {
		if h, ok := hints[f.Name]; ok && h.Type != "" {
			inferred.Fields[i].Type = h.Type
		}
	}
	return inferred
}
