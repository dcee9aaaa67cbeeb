// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

/*
Package taskstore provides Redis-backed storage primitives for a distributed
task queue.

Taskstore persists pending work items, due-but-not-yet-dispatched scheduled
items, computed results, and broadcast event notifications in a shared Redis
server, so that any number of independent producer and consumer processes can
coordinate work without direct communication.

# Components

Four independent components, each bound to one named channel in Redis and
usable concurrently from any number of processes:

  - Queue: FIFO byte-payload queue, with a BlockingQueue variant whose read
    waits for work to arrive.
  - Schedule: timestamp-ordered holding area with atomic due-item extraction.
    No two competing consumers ever receive the same scheduled item; the
    collect-and-remove step runs as one server-side Lua unit.
  - DataStore: keyed result storage with non-destructive Peek and
    destructive Get.
  - EventEmitter: fire-and-forget broadcast of status messages to whatever
    subscribers are listening at the moment of the broadcast.

No component depends on another. There is no background goroutine inside the
core; callers drive every operation. The optional HealthChecker and
EventListener helpers run goroutines on the consumer's behalf.

# Quick Start

Producer:

	queue := taskstore.NewQueue("emails", taskstore.RedisClientOpt{
		Addr: "localhost:6379",
	})
	defer queue.Close()

	if err := queue.Write(ctx, payload); err != nil {
		log.Fatal(err)
	}

Consumer:

	queue := taskstore.NewBlockingQueue("emails", 5*time.Second, taskstore.RedisClientOpt{
		Addr: "localhost:6379",
	})
	defer queue.Close()

	for {
		msg, ok, _ := queue.Read(ctx)
		if !ok {
			continue // timed out or server unreachable; poll again
		}
		process(msg)
	}

Connection options can also come from a configuration mapping, preferring a
url field when present:

	opt, err := taskstore.ParseConnConfig(map[string]interface{}{
		"url": "redis://localhost:6379/0",
	})

# Naming

Every persisted key is namespaced as taskstore.<kind>.<name> with kind one of
queue, schedule or results, and the name stripped to lowercase letters and
digits. Event emitter channels use the raw channel name unmodified.

# Error Handling

Logical absence (empty queue, no due items, missing key) is reported with a
false ok value, never as an error. Connectivity failures propagate to the
caller unmodified, with one documented exception: the blocking queue read
cannot distinguish a timed-out wait from a server that became unreachable
mid-wait and reports both as plain absence. Taskstore performs no retries;
retry policy belongs to the calling scheduler.
*/
package taskstore
