package meterdb

import (
	"bytes"
	"slices"
)

// CopyOption is a single `key value` option of a COPY statement.
type CopyOption struct {
	Key   string
	Value string
}

// CopyJob describes a server-side bulk load of a CSV file into a table.
//
// A CopyJob is a value: the With* methods return modified copies and never change
// the receiver.
type CopyJob struct {
	// Table is the target table name. It is interpolated as-is.
	Table string
	// SourcePath is the path of the file as seen by the database server.
	SourcePath string
	// HasHeader reports whether the first line of the file holds column names.
	HasHeader bool
	// ExtraOptions are rendered after the header option, in order. An option whose key
	// is already present replaces that option's value, including "header".
	ExtraOptions []CopyOption
}

// NewCopyJob creates a job for a file with a header line and no extra options.
func NewCopyJob(table, sourcePath string) CopyJob {
	return CopyJob{
		Table:      table,
		SourcePath: sourcePath,
		HasHeader:  true,
	}
}

// WithHeader returns a copy of the job with HasHeader set.
func (j CopyJob) WithHeader(hasHeader bool) CopyJob {
	j = j.clone()
	j.HasHeader = hasHeader
	return j
}

// WithTable returns a copy of the job targeting another table.
func (j CopyJob) WithTable(table string) CopyJob {
	j = j.clone()
	j.Table = table
	return j
}

// WithSourcePath returns a copy of the job reading another file.
func (j CopyJob) WithSourcePath(path string) CopyJob {
	j = j.clone()
	j.SourcePath = path
	return j
}

// WithOption returns a copy of the job with an extra option appended.
func (j CopyJob) WithOption(key, value string) CopyJob {
	opts := make([]CopyOption, len(j.ExtraOptions), len(j.ExtraOptions)+1)
	copy(opts, j.ExtraOptions)
	j.ExtraOptions = append(opts, CopyOption{Key: key, Value: value})
	return j
}

func (j CopyJob) clone() CopyJob {
	j.ExtraOptions = slices.Clone(j.ExtraOptions)
	return j
}

// options returns the effective options: header first, then the extra options
// overlaid in order.
func (j CopyJob) options() []CopyOption {
	header := "false"
	if j.HasHeader {
		header = "true"
	}
	opts := []CopyOption{{Key: "header", Value: header}}
	for _, o := range j.ExtraOptions {
		i := slices.IndexFunc(opts, func(e CopyOption) bool { return e.Key == o.Key })
		if i >= 0 {
			opts[i].Value = o.Value
			continue
		}
		opts = append(opts, o)
	}
	return opts
}

// BuildCopyStatement renders the job as
//
//	COPY <table> FROM '<source_path>' WITH <key value>, ...;
//
// Neither the table nor the path is escaped.
func BuildCopyStatement(job CopyJob) string {
	return renderCopyStatement(job.Table, job.SourcePath, job.options())
}

func renderCopyStatement(table, sourcePath string, opts []CopyOption) string {
	var b bytes.Buffer
	b.WriteString("COPY ")
	b.WriteString(table)
	b.WriteString(" FROM '")
	b.WriteString(sourcePath)
	b.WriteString("'")
	for i, o := range opts {
		if i == 0 {
			b.WriteString(" WITH ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(o.Key)
		b.WriteByte(' ')
		b.WriteString(o.Value)
	}
	b.WriteByte(';')
	return b.String()
}

// MapJobs applies transform to each job and returns the results in order.
// The input slice and its jobs are left unchanged.
func MapJobs(transform func(CopyJob) CopyJob, jobs []CopyJob) []CopyJob {
	out := make([]CopyJob, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, transform(job.clone()))
	}
	return out
}
