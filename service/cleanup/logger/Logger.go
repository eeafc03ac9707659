// Copyright 2024-2025 NetCracker Technology Corporation
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

package logger

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

type contextKey string

const (
	jobTypeKey contextKey = "jobType"
	jobIdKey   contextKey = "jobId"
)

// WithJob marks the context so that every message logged with it carries the job prefix.
func WithJob(ctx context.Context, jobType string, jobId string) context.Context {
	ctx = context.WithValue(ctx, jobTypeKey, jobType)
	return context.WithValue(ctx, jobIdKey, jobId)
}

func JobId(ctx context.Context) string {
	id, _ := ctx.Value(jobIdKey).(string)
	return id
}

// entry uses the "prefix" field rendered by the prefixed text formatter.
func entry(ctx context.Context) *log.Entry {
	jobType, _ := ctx.Value(jobTypeKey).(string)
	jobId, _ := ctx.Value(jobIdKey).(string)
	if jobType == "" || jobId == "" {
		return log.NewEntry(log.StandardLogger())
	}
	return log.WithField("prefix", fmt.Sprintf("jobType=%s jobId=%s", jobType, jobId))
}

func Debugf(ctx context.Context, format string, args ...interface{}) {
	entry(ctx).Debugf(format, args...)
}

func Infof(ctx context.Context, format string, args ...interface{}) {
	entry(ctx).Infof(format, args...)
}

func Info(ctx context.Context, args ...interface{}) {
	entry(ctx).Info(args...)
}

func Warnf(ctx context.Context, format string, args ...interface{}) {
	entry(ctx).Warnf(format, args...)
}

func Errorf(ctx context.Context, format string, args ...interface{}) {
	entry(ctx).Errorf(format, args...)
}
