package uijet

// taskQueueGlobal is where the foundational unit's exported helpers live.
// An external task-queue unit must assign an object with callable peek/run
// properties to this global; the built-in unit below does the same.
const taskQueueGlobal = "__uijet_taskq"

// taskQueueJS is the built-in foundational unit: a cooperative macrotask
// queue driven entirely by the host's clock. It installs setTimeout /
// setInterval / clearTimeout / clearInterval backed by a due-time ordered
// list, plus queueMicrotask and a process.env scaffold, and exports:
//
//   - peek(): due time in ms of the next pending task, or -1 when empty
//   - run(t): advance the queue clock to t and run at most one task whose
//     due time is <= t; expired intervals reschedule themselves
//
// run removes or reschedules the task it executes, which is what lets the
// host's per-tick drain loop terminate.
const taskQueueJS = `
globalThis.` + taskQueueGlobal + ` = (function() {
	var tasks = [];
	var seq = 0;
	var now = 0;

	function insert(task) {
		var lo = 0, hi = tasks.length;
		while (lo < hi) {
			var mid = (lo + hi) >> 1;
			if (tasks[mid].due <= task.due) lo = mid + 1;
			else hi = mid;
		}
		tasks.splice(lo, 0, task);
	}

	function remove(id) {
		for (var i = 0; i < tasks.length; i++) {
			if (tasks[i].id === id) {
				tasks.splice(i, 1);
				return;
			}
		}
	}

	function schedule(fn, delay, args, interval) {
		if (typeof fn !== 'function') return 0;
		var id = ++seq;
		insert({
			id: id,
			due: now + (delay > 0 ? delay : 0),
			fn: fn,
			args: args,
			interval: interval,
		});
		return id;
	}

	globalThis.setTimeout = function(fn, delay) {
		var args = [];
		for (var i = 2; i < arguments.length; i++) args.push(arguments[i]);
		return schedule(fn, delay || 0, args, 0);
	};
	globalThis.setInterval = function(fn, interval) {
		var args = [];
		for (var i = 2; i < arguments.length; i++) args.push(arguments[i]);
		return schedule(fn, interval || 0, args, interval > 0 ? interval : 1);
	};
	globalThis.clearTimeout = globalThis.clearInterval = function(id) {
		if (typeof id === 'number') remove(id);
	};

	if (typeof globalThis.queueMicrotask !== 'function') {
		globalThis.queueMicrotask = function(fn) {
			Promise.resolve().then(fn);
		};
	}

	if (typeof globalThis.process !== 'object' || globalThis.process === null) {
		globalThis.process = { env: {} };
	} else if (typeof globalThis.process.env !== 'object') {
		globalThis.process.env = {};
	}

	return {
		peek: function() {
			return tasks.length > 0 ? tasks[0].due : -1;
		},
		run: function(t) {
			now = t;
			if (tasks.length === 0 || tasks[0].due > t) return;
			var task = tasks.shift();
			if (task.interval > 0) {
				insert({
					id: task.id,
					due: now + task.interval,
					fn: task.fn,
					args: task.args,
					interval: task.interval,
				});
			}
			task.fn.apply(undefined, task.args);
		},
	};
})();
`

// taskQueueContractJS verifies the foundational unit's export. Evaluated
// after the unit; a false result is a fatal bootstrap error.
const taskQueueContractJS = `(function() {
	var q = globalThis.` + taskQueueGlobal + `;
	return typeof q === 'object' && q !== null &&
		typeof q.peek === 'function' && typeof q.run === 'function';
})()`

// consoleJS wraps the Go-backed __uijet_log in the usual console levels.
const consoleJS = `
globalThis.console = (function() {
	function join(args) {
		var parts = [];
		for (var i = 0; i < args.length; i++) {
			var a = args[i];
			if (typeof a === 'object' && a !== null) {
				try { parts.push(JSON.stringify(a)); }
				catch (e) { parts.push(String(a)); }
			} else {
				parts.push(String(a));
			}
		}
		return parts.join(' ');
	}
	function level(name) {
		return function() { __uijet_log(name, join(arguments)); };
	}
	return {
		log: level('log'),
		info: level('info'),
		warn: level('warn'),
		error: level('error'),
		debug: level('debug'),
	};
})();
`

// performanceJS wraps the Go-backed monotonic clock.
const performanceJS = `
globalThis.performance = {
	now: function() { return __uijet_now(); }
};
`
