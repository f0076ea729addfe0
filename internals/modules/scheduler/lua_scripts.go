package scheduler

// scheduleKey = "monitor:schedule"
// inflightKey = "monitor:inflight"

// FetchAndMoveToInflightScript pops due members from the schedule ZSET
// and parks them in the inflight ZSET scored with their reclaim
// deadline, all in one atomic step.
const FetchAndMoveToInflightScript = `
local scheduleKey = KEYS[1]
local inflightKey = KEYS[2]

local now = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
local visibilityTimeout = tonumber(ARGV[3])

local items = redis.call("ZRANGEBYSCORE", scheduleKey, "-inf", now, "LIMIT", 0, limit)

for i, member in ipairs(items) do
    redis.call("ZREM", scheduleKey, member)
    redis.call("ZADD", inflightKey, now + visibilityTimeout, member)
end

return items
`

// ReclaimMonitorsScript moves inflight members whose visibility
// deadline passed back onto the schedule so a crashed worker's jobs
// are not lost.
const ReclaimMonitorsScript = `
local inflightKey = KEYS[1]
local scheduleKey = KEYS[2]

local now = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])

local items = redis.call("ZRANGEBYSCORE", inflightKey, "-inf", now, "LIMIT", 0, limit)

for i, member in ipairs(items) do
    redis.call("ZREM", inflightKey, member)
    redis.call("ZADD", scheduleKey, now, member)
end

return #items
`
