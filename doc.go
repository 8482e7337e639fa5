// Package hostagent implements an agent that samples host and service metrics
// on a fixed cadence and stores them in PostgreSQL.
//
// Every tick the agent reads:
//   - per-cpu time, load average, memory, block device and network throughput,
//     and filesystem usage from the local host
//   - handled requests from an nginx stub_status page
//   - tuple activity and table sizes from a monitored PostgreSQL database
//   - cpu, memory and network usage of running Docker containers
//
// Counters are turned into per-tick deltas or per-second rates against the
// previous reading. The samples of a tick share one timestamp and are written
// with one bulk insert per table, retried with exponential backoff when the
// store is unreachable.
//
// The agent is configured with a YAML file, environment variables and
// command-line flags, see cmd/agent.
package hostagent
