package stream

import "sync"

// FanIn merges streams into one channel that is closed once every input is
// drained. The executor uses it to collect the errors of its history sinks.
func FanIn[T any](streams ...<-chan T) <-chan T {
	out := make(chan T, len(streams))

	var wg sync.WaitGroup
	receive := func(c <-chan T) {
		for v := range c {
			out <- v
		}
		wg.Done()
	}

	wg.Add(len(streams))
	for _, stream := range streams {
		go receive(stream)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
