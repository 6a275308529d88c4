package function

import (
	"context"
	"sync"
)

// MemoryFunctionRepository is an in-memory FunctionRepository. It backs
// package tests across the module (routing, pipeline, httpapi) and
// doubles as a zero-dependency repository for local development.
type MemoryFunctionRepository struct {
	mu    sync.RWMutex
	byName map[string]*Function
}

func NewMemoryFunctionRepository() *MemoryFunctionRepository {
	return &MemoryFunctionRepository{byName: make(map[string]*Function)}
}

func (r *MemoryFunctionRepository) FindAll(ctx context.Context) ([]*Function, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Function, 0, len(r.byName))
	for _, f := range r.byName {
		cp := *f
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryFunctionRepository) FindByName(ctx context.Context, name string) (*Function, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.byName[name]
	if !ok {
		return nil, NotFound("MemoryFunctionRepository.FindByName", "function not found: "+name)
	}
	cp := *f
	return &cp, nil
}

func (r *MemoryFunctionRepository) Save(ctx context.Context, f *Function) error {
	if err := f.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[f.Name]; exists {
		return AlreadyExists("MemoryFunctionRepository.Save", "function already exists: "+f.Name)
	}
	cp := *f
	r.byName[f.Name] = &cp
	return nil
}

func (r *MemoryFunctionRepository) Update(ctx context.Context, f *Function) error {
	if err := f.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byName[f.Name]
	if !ok {
		return NotFound("MemoryFunctionRepository.Update", "function not found: "+f.Name)
	}
	if existing.ReadOnly {
		return Validation("MemoryFunctionRepository.Update", "function is readonly: "+f.Name)
	}
	cp := *f
	r.byName[f.Name] = &cp
	return nil
}

func (r *MemoryFunctionRepository) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byName[name]
	if !ok {
		return NotFound("MemoryFunctionRepository.Delete", "function not found: "+name)
	}
	if existing.ReadOnly {
		return Validation("MemoryFunctionRepository.Delete", "function is readonly: "+name)
	}
	delete(r.byName, name)
	return nil
}

// MemoryTriggerRepository is an in-memory TriggerRepository.
type MemoryTriggerRepository struct {
	mu     sync.RWMutex
	byName map[string]*Trigger
	order  []string
}

func NewMemoryTriggerRepository() *MemoryTriggerRepository {
	return &MemoryTriggerRepository{byName: make(map[string]*Trigger)}
}

func (r *MemoryTriggerRepository) FindAll(ctx context.Context) ([]*Trigger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Trigger, 0, len(r.order))
	for _, name := range r.order {
		t, ok := r.byName[name]
		if !ok {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryTriggerRepository) Save(ctx context.Context, t *Trigger) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[t.Name]; exists {
		return AlreadyExists("MemoryTriggerRepository.Save", "trigger already exists: "+t.Name)
	}
	cp := *t
	r.byName[t.Name] = &cp
	r.order = append(r.order, t.Name)
	return nil
}

func (r *MemoryTriggerRepository) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byName[name]
	if !ok {
		return NotFound("MemoryTriggerRepository.Delete", "trigger not found: "+name)
	}
	if existing.ReadOnly {
		return Validation("MemoryTriggerRepository.Delete", "trigger is readonly: "+name)
	}
	delete(r.byName, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

var (
	_ FunctionRepository = (*MemoryFunctionRepository)(nil)
	_ TriggerRepository  = (*MemoryTriggerRepository)(nil)
)
