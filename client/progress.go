package client

import "io"

// ProgressReport is the data packet sent from the Client to the UI while an
// upload is in flight.
type ProgressReport struct {
	Step       string // INIT, PREPARE, UPLOAD, CONFIG
	Current    int    // current item index (1, 2, 3...)
	Total      int    // total item count
	BytesSent  int64  // bytes sent for the current item
	TotalBytes int64  // total bytes of the current item
}

// ProgressReporter receives upload progress updates.
type ProgressReporter interface {
	Report(report ProgressReport)
}

// report forwards to the attached reporter, if any.
func (c *Client) report(p ProgressReport) {
	c.mu.RLock()
	r := c.reporter
	c.mu.RUnlock()

	if r != nil {
		r.Report(p)
	}
}

// progressReader wraps an io.Reader and calls onRead as bytes flow through.
type progressReader struct {
	reader io.Reader
	total  int64
	read   int64
	onRead func(read, total int64)
}

func (pr *progressReader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)
	pr.read += int64(n)

	if pr.onRead != nil {
		pr.onRead(pr.read, pr.total)
	}
	return n, err
}
