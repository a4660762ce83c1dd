// Copyright 2026 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"fmt"
	"io"
	"os"

	pb "gopkg.in/cheggaaa/pb.v1"
)

// progressBar is an instance of ReadCloser with an associated ProgressBar.
// Closing this instance closes the delegate as well as clearing the terminal
// line of progress output.
type progressBar struct {
	r   io.ReadCloser
	bar *pb.ProgressBar
}

// WrapInputFile creates an instance of os.File with an associated
// ProgressBar that tracks the bytes read relative to the total.
func WrapInputFile(f *os.File) (io.ReadCloser, error) {
	if f == os.Stdin {
		return os.Stdin, nil
	}

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	bar := pb.New(int(fi.Size())).SetUnits(pb.U_BYTES_DEC).SetWidth(79)
	bar.Output = os.Stderr
	bar.Start()

	return progressBar{r: bar.NewProxyReader(f), bar: bar}, nil
}

func (p progressBar) Read(b []byte) (int, error) {
	return p.r.Read(b)
}

func (p progressBar) Close() error {
	finish(p.bar)

	return p.r.Close()
}

// finish stops bar without leaving its last line on the terminal.
func finish(bar *pb.ProgressBar) {
	bar.Output = nil
	bar.NotPrint = true

	bar.Finish()

	fmt.Fprintf(os.Stderr, "\033[2K\r")
}

// Counter is a progress bar over a known number of steps, printed to
// stderr.
type Counter struct {
	bar *pb.ProgressBar
}

// NewCounter starts a counter over total steps.
func NewCounter(total int, prefix string) *Counter {
	bar := pb.New(total).Prefix(prefix).SetWidth(79)
	bar.Output = os.Stderr
	bar.Start()

	return &Counter{bar: bar}
}

// Increment records one finished step.
func (c *Counter) Increment() {
	c.bar.Increment()
}

// Finish clears the counter.
func (c *Counter) Finish() {
	finish(c.bar)
}

// OpenInput opens path, or returns stdin for "" and "-".  The file is
// wrapped with a progress bar unless quiet.
func OpenInput(path string, quiet bool) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return os.Stdin, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if quiet {
		return f, nil
	}

	return WrapInputFile(f)
}
