package testutil

// SampleConfigYAML is a complete configuration in YAML form.
const SampleConfigYAML = `keyspace:
  min: 1000
  max: 9999
limits:
  max_attempts: 2500
timing:
  interval: 75ms
  settle_delay: 10ms
  pause_poll: 200ms
field:
  selector: 'input[name="code"]'
  labels:
    - Go
    - Join
  fuzzy_distance: 1
host:
  devtools_url: http://127.0.0.1:9333
  page_match: example.com/lobby
log:
  level: debug
`

// SampleConfigTOML carries the same settings as SampleConfigYAML.
const SampleConfigTOML = `[keyspace]
min = 1000
max = 9999

[limits]
max_attempts = 2500

[timing]
interval = "75ms"
settle_delay = "10ms"
pause_poll = "200ms"

[field]
selector = 'input[name="code"]'
labels = ["Go", "Join"]
fuzzy_distance = 1

[host]
devtools_url = "http://127.0.0.1:9333"
page_match = "example.com/lobby"

[log]
level = "debug"
`

// SampleInvalidConfigYAML has an inverted range.
const SampleInvalidConfigYAML = `keyspace:
  min: 500
  max: 100
`
