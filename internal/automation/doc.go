// Package automation evaluates threshold rules against sensor readings and
// drives actuators when they match.
//
// Architecture:
//
//	┌────────────────────────────────────────────────────┐
//	│                  Engine (engine.go)                 │
//	│                                                     │
//	│   rules[0] ─▶ rules[1] ─▶ ... ─▶ rules[n-1]         │
//	│      │  insertion order, capacity bounded           │
//	│      ▼                                              │
//	│   SensorValue(trigger) <cmp> threshold ?            │
//	│      │ true                                         │
//	│      ▼                                              │
//	│   SetState(action, on, value)                       │
//	└────────────────────────────────────────────────────┘
//	            │                         ▲
//	            ▼                         │ Restore
//	   ┌─────────────────┐      ┌──────────────────────┐
//	   │ device.Registry │      │ SQLiteRepository     │
//	   └─────────────────┘      │ (automation_rules)   │
//	                            └──────────────────────┘
//
// Rules are edge-free: a matching rule fires on every evaluation, so when
// two rules target the same actuator the later one wins for that pass.
// Errors from SetState are logged and never stop the pass.
//
// # Usage
//
//	engine := automation.NewEngine(automation.DefaultCapacity)
//	engine.SetLogger(log.Component("automation"))
//	count, err := engine.AddRule(automation.Rule{
//	    TriggerDeviceID: device.Temp1,
//	    Comparator:      automation.Greater,
//	    Threshold:       30,
//	    ActionDeviceID:  device.Relay1,
//	    ActionOn:        true,
//	    ActionValue:     device.NoValue,
//	})
//	engine.Evaluate(registry)
package automation
