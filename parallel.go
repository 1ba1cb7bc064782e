package pagetl

import "sync"

// maxLookupWorkers caps concurrent translation memory reads per batch.
const maxLookupWorkers = 16

// ParallelCacheLookup reads the translation memory entries of hashes in
// targetLang with up to maxLookupWorkers concurrent Gets and returns the
// hits keyed by hash. Duplicate hashes are read once. Only remote memories
// gain from this; the Scheduler uses it from ParallelThreshold items up.
func ParallelCacheLookup(cache TranslationCache, hashes []string, targetLang string) map[string]string {
	hits := make(map[string]string)
	if cache == nil || len(hashes) == 0 {
		return hits
	}

	seen := make(map[string]bool, len(hashes))
	jobs := make(chan string)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	workers := min(maxLookupWorkers, len(hashes))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for h := range jobs {
				if val, ok := cache.Get(CacheKey(h, targetLang)); ok {
					mu.Lock()
					hits[h] = val
					mu.Unlock()
				}
			}
		}()
	}

	for _, h := range hashes {
		if !seen[h] {
			seen[h] = true
			jobs <- h
		}
	}
	close(jobs)
	wg.Wait()

	return hits
}
