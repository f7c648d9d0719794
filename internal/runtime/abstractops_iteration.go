package runtime

import "github.com/escore/escore/internal/errors"

// IteratorRecord bundles an iterator object with its cached `next`
// method, per spec.md §4.1's iterator-protocol operations (GetIterator
// et al. in the host spec). async marks whether Symbol.asyncIterator
// was used, which callers need to know when deciding whether a step's
// result must itself be awaited.
type IteratorRecord struct {
	Iterator *Object
	Next     *Object
	Done     bool
	Async    bool
}

// GetIterator implements `get-iterator`: looks up Symbol.iterator (or
// Symbol.asyncIterator when async requests it) on v, calls it, and
// validates the result is an object.
func GetIterator(agent *Agent, v Value, async bool) (*IteratorRecord, *errors.LanguageError) {
	sym := SymbolIterator
	if async {
		sym = SymbolAsyncIterator
	}
	var realm *Realm
	if ctx := agent.Stack.Current(); ctx != nil {
		realm = ctx.Realm
	}
	o, err := ToObject(agent, v, realm)
	if err != nil {
		return nil, err
	}
	methodV, err := o.Get(agent, sym, o)
	if err != nil {
		return nil, err
	}
	method, ok := methodV.(*Object)
	if !ok || !method.IsCallable() {
		return nil, errors.NewType("value is not iterable")
	}
	iterV, err := method.Call(agent, o, nil, nil)
	if err != nil {
		return nil, err
	}
	iter, ok := iterV.(*Object)
	if !ok {
		return nil, errors.NewType("Result of the Symbol.iterator method is not an object")
	}
	nextV, err := iter.Get(agent, String("next"), iter)
	if err != nil {
		return nil, err
	}
	next, ok := nextV.(*Object)
	if !ok || !next.IsCallable() {
		return nil, errors.NewType("iterator.next is not a function")
	}
	return &IteratorRecord{Iterator: iter, Next: next, Async: async}, nil
}

// IteratorStep calls the iterator's next method, returning (resultObj,
// false) when the iterator reports done and (resultObj, true) along
// with the result object otherwise — callers read `.value` off it
// themselves since, for async iterators, that value is itself a promise
// the caller must await before use.
func IteratorStep(agent *Agent, it *IteratorRecord) (*Object, bool, *errors.LanguageError) {
	resV, err := it.Next.Call(agent, it.Iterator, nil, nil)
	if err != nil {
		return nil, false, err
	}
	res, ok := resV.(*Object)
	if !ok {
		return nil, false, errors.NewType("Iterator result is not an object")
	}
	doneV, err := res.Get(agent, String("done"), res)
	if err != nil {
		return nil, false, err
	}
	if ToBoolean(doneV) {
		it.Done = true
		return res, false, nil
	}
	return res, true, nil
}

// IteratorValue reads the `.value` property off an iterator result
// object.
func IteratorValue(agent *Agent, res *Object) (Value, *errors.LanguageError) {
	return res.Get(agent, String("value"), res)
}

// IteratorClose calls the iterator's `return` method if present,
// ignoring its result but propagating completionErr if already set (the
// host spec's rule that a close triggered while unwinding an abrupt
// completion must not let a successful close mask the original error,
// while a failing close during a normal completion's unwinding does
// propagate).
func IteratorClose(agent *Agent, it *IteratorRecord, completionErr *errors.LanguageError) *errors.LanguageError {
	returnV, err := it.Iterator.Get(agent, String("return"), it.Iterator)
	if err != nil {
		if completionErr != nil {
			return completionErr
		}
		return err
	}
	ret, ok := returnV.(*Object)
	if !ok || ret == nil || !ret.IsCallable() {
		return completionErr
	}
	_, callErr := ret.Call(agent, it.Iterator, nil, nil)
	if completionErr != nil {
		return completionErr
	}
	return callErr
}

// IteratorToSlice drains a (synchronous) iterator fully, used by spread
// elements and destructuring over a non-array iterable.
func IteratorToSlice(agent *Agent, it *IteratorRecord) ([]Value, *errors.LanguageError) {
	var out []Value
	for {
		res, more, err := IteratorStep(agent, it)
		if err != nil {
			return nil, err
		}
		if !more {
			return out, nil
		}
		v, err := IteratorValue(agent, res)
		if err != nil {
			return nil, IteratorClose(agent, it, err)
		}
		out = append(out, v)
	}
}
