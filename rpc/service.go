// Copyright 2026 The go-paperclip Authors
// This file is part of the go-paperclip library.
//
// The go-paperclip library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-paperclip library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-paperclip library. If not, see <http://www.gnu.org/licenses/>.

package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/paperclip-protocol/go-paperclip/log"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// callback is a method callback which was registered in the server
type callback struct {
	fn       reflect.Value  // the function
	rcvr     reflect.Value  // receiver object of method
	argTypes []reflect.Type // input argument types
	hasCtx   bool           // method's first argument is a context (not included in argTypes)
	errPos   int            // err return idx, of -1 when method cannot return error
}

// suitableCallbacks iterates over the methods of the given type. It determines
// if a method satisfies the criteria for a RPC callback and adds it to the
// collection of callbacks.
func suitableCallbacks(receiver reflect.Value) map[string]*callback {
	typ := receiver.Type()
	callbacks := make(map[string]*callback)
	for m := 0; m < typ.NumMethod(); m++ {
		method := typ.Method(m)
		if method.PkgPath != "" {
			continue // method not exported
		}
		cb := newCallback(receiver, method.Func)
		if cb == nil {
			continue // function invalid
		}
		callbacks[formatName(method.Name)] = cb
	}
	return callbacks
}

// newCallback turns fn (a function) into a callback object. It returns nil if
// the function is unsuitable as an RPC callback.
func newCallback(receiver, fn reflect.Value) *callback {
	fntype := fn.Type()
	c := &callback{fn: fn, rcvr: receiver, errPos: -1}

	// Skip receiver and context.Context parameter (if present).
	firstArg := 1
	if fntype.NumIn() > firstArg && fntype.In(firstArg) == contextType {
		c.hasCtx = true
		firstArg++
	}
	for i := firstArg; i < fntype.NumIn(); i++ {
		c.argTypes = append(c.argTypes, fntype.In(i))
	}
	// Determine whether the function returns an error and where.
	outs := make([]reflect.Type, fntype.NumOut())
	for i := 0; i < fntype.NumOut(); i++ {
		outs[i] = fntype.Out(i)
	}
	if len(outs) > 2 {
		return nil
	}
	switch {
	case len(outs) == 1 && outs[0] == errorType:
		c.errPos = 0
	case len(outs) == 2:
		if outs[0] == errorType || outs[1] != errorType {
			return nil
		}
		c.errPos = 1
	}
	return c
}

// parseArgs decodes positional JSON parameters into the callback's argument
// types. Missing trailing arguments take their zero value.
func (c *callback) parseArgs(raw json.RawMessage) ([]reflect.Value, error) {
	var params []json.RawMessage
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, fmt.Errorf("non-array args: %v", err)
		}
	}
	if len(params) > len(c.argTypes) {
		return nil, fmt.Errorf("too many arguments, want at most %d", len(c.argTypes))
	}
	args := make([]reflect.Value, len(c.argTypes))
	for i, typ := range c.argTypes {
		v := reflect.New(typ)
		if i < len(params) {
			if err := json.Unmarshal(params[i], v.Interface()); err != nil {
				return nil, fmt.Errorf("invalid argument %d: %v", i, err)
			}
		}
		args[i] = v.Elem()
	}
	return args, nil
}

// call invokes the callback.
func (c *callback) call(ctx context.Context, method string, args []reflect.Value) (res interface{}, errRes error) {
	// Create the argument slice.
	fullargs := make([]reflect.Value, 0, 2+len(args))
	fullargs = append(fullargs, c.rcvr)
	if c.hasCtx {
		fullargs = append(fullargs, reflect.ValueOf(ctx))
	}
	fullargs = append(fullargs, args...)

	// Catch panic while running the callback.
	defer func() {
		if err := recover(); err != nil {
			log.Error("RPC method crashed", "method", method, "err", err)
			errRes = errors.New("method handler crashed")
		}
	}()
	// Run the callback.
	results := c.fn.Call(fullargs)
	if len(results) == 0 {
		return nil, nil
	}
	if c.errPos >= 0 && !results[c.errPos].IsNil() {
		// Method has returned non-nil error value.
		err := results[c.errPos].Interface().(error)
		return nil, err
	}
	if c.errPos == 0 {
		return nil, nil
	}
	return results[0].Interface(), nil
}

// formatName converts to first character of name to lowercase.
func formatName(name string) string {
	ret := []rune(name)
	if len(ret) > 0 {
		ret[0] = unicode.ToLower(ret[0])
	}
	return string(ret)
}

type serviceRegistry struct {
	callbacks map[string]*callback // namespace_method -> callback
}

func (r *serviceRegistry) registerName(name string, rcvr interface{}) error {
	rcvrVal := reflect.ValueOf(rcvr)
	if name == "" {
		return fmt.Errorf("no service name for type %s", rcvrVal.Type().String())
	}
	callbacks := suitableCallbacks(rcvrVal)
	if len(callbacks) == 0 {
		return fmt.Errorf("service %T doesn't have any suitable methods to expose", rcvr)
	}
	if r.callbacks == nil {
		r.callbacks = make(map[string]*callback)
	}
	for method, cb := range callbacks {
		r.callbacks[name+serviceMethodSeparator+method] = cb
	}
	return nil
}

func (r *serviceRegistry) callback(method string) *callback {
	return r.callbacks[method]
}

func namespaceOf(method string) string {
	if i := strings.Index(method, serviceMethodSeparator); i > 0 {
		return method[:i]
	}
	return ""
}
