package giftcard

import "time"

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordOperationDuration(string, time.Duration) {}
func (n *NoopMetricsCollector) RecordOperationResult(string, string)          {}
func (n *NoopMetricsCollector) RecordIssued(int64)                            {}
func (n *NoopMetricsCollector) RecordRedemption(int64, int64)                 {}
func (n *NoopMetricsCollector) RecordError(string, string)                    {}
