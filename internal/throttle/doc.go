// Package throttle counts attempts per key inside a fixed window and refuses
// new ones once a key reaches its limit.
package throttle
