package pipeline

import (
	"context"
	"fmt"
	"sync"
)

type Result struct {
	Payload any
	Status  string
	Error   error
}

type Task struct {
	NodeKey string
	Payload any
	Results map[string]Result
}

// TaskManager records the outcome of every node visited during one run.
type TaskManager struct {
	Tasks map[string]*Task
	order []string
	mu    sync.Mutex
}

func NewTaskManager() *TaskManager {
	return &TaskManager{
		Tasks: make(map[string]*Task),
	}
}

func (tm *TaskManager) AddTask(nodeKey string, payload any) *Task {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	task := &Task{
		NodeKey: nodeKey,
		Payload: payload,
		Results: make(map[string]Result),
	}
	tm.Tasks[nodeKey] = task
	tm.order = append(tm.order, nodeKey)
	return task
}

func (tm *TaskManager) GetTask(nodeKey string) *Task {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.Tasks[nodeKey]
}

// Visited returns node keys in the order they ran.
func (tm *TaskManager) Visited() []string {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return append([]string(nil), tm.order...)
}

type EdgeType int

const (
	SimpleEdge EdgeType = iota
	ConditionEdge
)

type Handler func(ctx context.Context, payload any) Result

type Node struct {
	Label   string
	Key     string
	Handler Handler
}

// Condition maps the status returned by a condition node to the next node.
type Condition map[string]string

type ID string

type Edge struct {
	Label      string
	Source     string
	Targets    []string
	EdgeType   EdgeType
	Conditions map[ID]Condition
}

// DAG runs stage handlers depth first from the start node. Every target of
// a simple edge receives the source's output, so one stage can fan out to
// several independent readers.
type DAG struct {
	Nodes     map[string]Node
	Edges     []Edge
	mu        sync.RWMutex
	startNode *Node
}

func NewDAG() *DAG {
	return &DAG{
		Nodes: make(map[string]Node),
	}
}

func (d *DAG) AddNode(key, label string, handler Handler, firstNode ...bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	node := Node{
		Label:   label,
		Key:     key,
		Handler: handler,
	}
	if len(firstNode) > 0 && firstNode[0] {
		d.startNode = &node
	}
	d.Nodes[key] = node
}

func (d *DAG) AddEdge(label string, edgeType EdgeType, source string, targets []string, conditions ...map[ID]Condition) {
	d.mu.Lock()
	defer d.mu.Unlock()
	edge := Edge{
		Label:    label,
		Source:   source,
		EdgeType: edgeType,
		Targets:  targets,
	}
	if len(conditions) > 0 {
		edge.Conditions = conditions[0]
	}
	d.Edges = append(d.Edges, edge)
}

// ProcessTask runs the graph and returns the task manager holding every
// node's result. The first failing node stops the run.
func (d *DAG) ProcessTask(ctx context.Context, payload any) (*TaskManager, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	taskManager := NewTaskManager()
	startNode := d.getStartNode()
	if startNode == nil {
		return taskManager, fmt.Errorf("no start node found")
	}
	task := taskManager.AddTask(startNode.Key, payload)
	result := d.processNode(ctx, startNode, taskManager, task)
	return taskManager, result.Error
}

func (d *DAG) getStartNode() *Node {
	if d.startNode != nil {
		return d.startNode
	}
	for _, node := range d.Nodes {
		if d.isStartNode(node.Key) {
			return &node
		}
	}
	return nil
}

func (d *DAG) isStartNode(nodeKey string) bool {
	for _, edge := range d.Edges {
		for _, target := range edge.Targets {
			if target == nodeKey {
				return false
			}
		}
		for conditionID, conditionMap := range edge.Conditions {
			if string(conditionID) == nodeKey {
				return false
			}
			for _, next := range conditionMap {
				if next == nodeKey {
					return false
				}
			}
		}
	}
	return true
}

func (d *DAG) node(key string) (*Node, error) {
	n, ok := d.Nodes[key]
	if !ok {
		return nil, fmt.Errorf("node %q not found", key)
	}
	return &n, nil
}

func (d *DAG) processNode(ctx context.Context, node *Node, taskManager *TaskManager, task *Task) Result {
	if err := ctx.Err(); err != nil {
		return Result{Error: err}
	}
	result := node.Handler(ctx, task.Payload)
	task.Results[node.Key] = result
	if result.Error != nil {
		result.Error = fmt.Errorf("%s: %w", node.Key, result.Error)
		return result
	}
	for _, edge := range d.Edges {
		if edge.Source != node.Key {
			continue
		}
		switch edge.EdgeType {
		case SimpleEdge:
			for _, targetKey := range edge.Targets {
				targetNode, err := d.node(targetKey)
				if err != nil {
					return Result{Error: err}
				}
				nextResult := d.processNode(ctx, targetNode, taskManager, taskManager.AddTask(targetKey, result.Payload))
				if nextResult.Error != nil {
					return nextResult
				}
			}
		case ConditionEdge:
			for conditionID, conditionMap := range edge.Conditions {
				conditionNode, err := d.node(string(conditionID))
				if err != nil {
					return Result{Error: err}
				}
				conditionResult := d.processNode(ctx, conditionNode, taskManager, taskManager.AddTask(string(conditionID), result.Payload))
				if conditionResult.Error != nil {
					return conditionResult
				}
				nextNodeKey := conditionMap[conditionResult.Status]
				if nextNodeKey == "" {
					return Result{Error: fmt.Errorf("invalid condition status: %s", conditionResult.Status)}
				}
				nextNode, err := d.node(nextNodeKey)
				if err != nil {
					return Result{Error: err}
				}
				nextResult := d.processNode(ctx, nextNode, taskManager, taskManager.AddTask(nextNodeKey, result.Payload))
				if nextResult.Error != nil {
					return nextResult
				}
			}
		}
	}
	return result
}

// Output returns the payload a node produced in a finished run.
func Output[T any](tm *TaskManager, key string) (T, bool) {
	var zero T
	task := tm.GetTask(key)
	if task == nil {
		return zero, false
	}
	res, ok := task.Results[key]
	if !ok || res.Error != nil {
		return zero, false
	}
	v, ok := res.Payload.(T)
	return v, ok
}
