// Callisto is a toolbox around a family of embedded rate limiting
// algorithms: token bucket, fixed window counter, sliding window log, and
// sliding window counter.
//
// Usage:
//
//	# Validate a configuration file
//	callisto validate --config callisto.yaml
//
//	# Replay a synthetic workload against a policy
//	callisto simulate --algorithm token_bucket --rate 10 --capacity 5 --requests 100
//
//	# Query the decision journal
//	callisto journal query --identifier api-key-123 --format json
//
//	# Show version information
//	callisto version
package main

func main() {
	Execute()
}
