// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package broadcast fans auction events out to connected clients.

# Ordering

The engine is the only publisher of auction events and publishes from its
command goroutine, so the hub sees them in commit order. Publish stamps a
hub-wide sequence number and queues the event for every subscriber under one
lock; each subscriber therefore receives events in publish order.

# Slow Subscribers

Every subscription has a bounded queue. Publish never waits: when a queue is
full the subscriber is evicted and its channel closed with ReasonLagging. The
client is expected to reconnect and fetch a fresh snapshot; there is no
replay.

# Presence

One live subscription per team. A second Subscribe for the same team closes
the first with ReasonReplaced. Joins, leaves and visibility changes publish
connection_count and online_teams_updated events.

A team whose connection drops for any other reason stays in the online list
with status reconnecting for the hub's grace period (RECONNECT_GRACE). A new
subscription inside the window takes its place; otherwise the team is
dropped when the timer fires. connection_count always reports live
connections only.
*/
package broadcast
