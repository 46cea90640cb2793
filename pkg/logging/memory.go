package logging

// MemorySink accumulates lines in memory; used from _test.go files to
// assert on logger and telemetry output without a real serial port.
type MemorySink struct {
	Lines []string
}

// WriteLine implements Sink.
func (m *MemorySink) WriteLine(line string) error {
	m.Lines = append(m.Lines, line)
	return nil
}
