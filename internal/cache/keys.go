package cache

import "fmt"

// jobStatusKey builds the Redis key for one job's status.
func jobStatusKey(jobID string) string {
	return fmt.Sprintf("jobmatch:job:%s:status", jobID)
}
