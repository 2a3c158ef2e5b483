package server

import (
	"encoding/json"
	"time"

	"github.com/arborhq/arbor/internal/tree"
)

// MessageType defines the type of a broadcast message.
type MessageType string

const (
	// MessageTypeNodeUpdate indicates a node was added, edited, or deleted.
	MessageTypeNodeUpdate MessageType = "node_update"

	// MessageTypeTreeUpdate indicates the whole tree was replaced (load,
	// seed, or snapshot import); clients should refetch.
	MessageTypeTreeUpdate MessageType = "tree_update"

	// MessageTypeSave indicates the outcome of a background save.
	MessageTypeSave MessageType = "save"
)

// Message is the broadcast envelope sent to WebSocket clients.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NodeUpdateData describes a single-node change.
type NodeUpdateData struct {
	NodeID   string `json:"node_id"`
	Action   string `json:"action"` // added, updated, deleted
	Name     string `json:"name,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
}

// TreeUpdateData describes a whole-tree replacement.
type TreeUpdateData struct {
	RootID    string `json:"root_id"`
	NodeCount int    `json:"node_count"`
}

// SaveData describes a background save outcome.
type SaveData struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// notifier bridges editor events onto the broadcast channel.
type notifier struct {
	server *Server
}

func (n *notifier) send(t MessageType, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		n.server.logger.Printf("Failed to marshal %s data: %v", t, err)
		return
	}
	n.server.Broadcast(Message{Type: t, Timestamp: time.Now(), Data: raw})
}

func (n *notifier) OnNodeAdded(node *tree.Node, parentID string) {
	n.send(MessageTypeNodeUpdate, NodeUpdateData{
		NodeID:   node.ID,
		Action:   "added",
		Name:     node.Name,
		ParentID: parentID,
	})
}

func (n *notifier) OnNodeUpdated(node *tree.Node) {
	n.send(MessageTypeNodeUpdate, NodeUpdateData{
		NodeID: node.ID,
		Action: "updated",
		Name:   node.Name,
	})
}

func (n *notifier) OnNodeDeleted(id string) {
	n.send(MessageTypeNodeUpdate, NodeUpdateData{NodeID: id, Action: "deleted"})
}

func (n *notifier) OnTreeReplaced(root *tree.Node) {
	n.send(MessageTypeTreeUpdate, TreeUpdateData{
		RootID:    root.ID,
		NodeCount: tree.Count(root),
	})
}

func (n *notifier) OnSaved() {
	n.send(MessageTypeSave, SaveData{OK: true})
}

func (n *notifier) OnSaveError(err error) {
	n.send(MessageTypeSave, SaveData{OK: false, Error: err.Error()})
}
