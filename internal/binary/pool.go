package binary

import (
	"runtime"
	"sync"
)

// forEachRow runs fn for every row in [0, rows) on up to workers goroutines.
// If any call fails, the error of the lowest failing row is returned.
func forEachRow(rows, workers int, fn func(row int) error) error {
	if rows == 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > rows {
		workers = rows
	}

	if workers == 1 {
		for y := 0; y < rows; y++ {
			if err := fn(y); err != nil {
				return err
			}
		}
		return nil
	}

	type rowResult struct {
		row int
		err error
	}

	jobs := make(chan int, rows)
	results := make(chan rowResult, rows)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for row := range jobs {
				if err := fn(row); err != nil {
					results <- rowResult{row: row, err: err}
				}
			}
		}()
	}

	for y := 0; y < rows; y++ {
		jobs <- y
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	first := rowResult{row: rows}
	for r := range results {
		if r.row < first.row {
			first = r
		}
	}
	return first.err
}
