package app

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestCommands_Tick(t *testing.T) {
	cmds := NewCommands(nil)
	if cmds.Tick(time.Millisecond) == nil {
		t.Error("Tick returned nil")
	}
	if cmds.DefaultTick() == nil {
		t.Error("DefaultTick returned nil")
	}
}

func TestCommands_Notifications(t *testing.T) {
	cmds := NewCommands(nil)

	tests := []struct {
		name string
		fn   func(string) tea.Cmd
		want NotificationType
	}{
		{"Success", cmds.NotifySuccess, NotificationSuccess},
		{"Error", cmds.NotifyError, NotificationError},
		{"Warning", cmds.NotifyWarning, NotificationWarning},
		{"Info", cmds.NotifyInfo, NotificationInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.fn("msg")()

			addMsg, ok := msg.(AddNotificationMsg)
			if !ok {
				t.Fatalf("Expected AddNotificationMsg, got %T", msg)
			}
			if addMsg.Type != tt.want {
				t.Errorf("Type = %v, want %v", addMsg.Type, tt.want)
			}
			if addMsg.Message != "msg" {
				t.Errorf("Message = %q, want msg", addMsg.Message)
			}
			if addMsg.Duration <= 0 {
				t.Error("notifications should expire")
			}
		})
	}
}

func TestCommands_WithoutServices(t *testing.T) {
	cmds := NewCommands(nil)
	if cmds.LoadSnapshot() != nil || cmds.Reset() != nil || cmds.Delete("2026-06-01", -1) != nil {
		t.Error("service commands should be nil without services")
	}
}

func TestCommands_WithServices(t *testing.T) {
	svc := newFakeServices()
	svc.total = 12
	cmds := NewCommands(svc)

	msg, ok := cmds.LoadSnapshot()().(SnapshotLoadedMsg)
	if !ok || msg.Snapshot.Total != 12 {
		t.Errorf("LoadSnapshot = %#v", msg)
	}
	if _, ok := cmds.Reset()().(ResetResultMsg); !ok || svc.resets != 1 {
		t.Error("Reset should request a reset")
	}
	if res, ok := cmds.Delete("2026-06-01", 3)().(DeleteResultMsg); !ok || res.Hour != 3 {
		t.Errorf("Delete = %#v", res)
	}
}

func TestCommands_ClearNotification(t *testing.T) {
	cmds := NewCommands(nil)
	if cmds.ClearNotification("id", time.Millisecond) == nil {
		t.Error("ClearNotification returned nil")
	}
}

func TestCommands_Quit(t *testing.T) {
	cmds := NewCommands(nil)
	if _, ok := cmds.Quit()().(tea.QuitMsg); !ok {
		t.Error("Expected QuitMsg")
	}
}

func TestCommands_Batch(t *testing.T) {
	cmds := NewCommands(nil)
	if cmds.Batch(cmds.Quit(), cmds.NotifyInfo("test")) == nil {
		t.Error("Batch returned nil")
	}
}

func TestCommands_Delayed(t *testing.T) {
	cmds := NewCommands(nil)
	if cmds.Delayed(time.Millisecond, QuitMsg{}) == nil {
		t.Error("Delayed returned nil")
	}
}
