package conversation

import (
	"errors"
	"strings"
	"testing"
)

func mustNew(t *testing.T, name string) *Conversation {
	t.Helper()
	conv, err := NewRegistry().New(name)
	if err != nil {
		t.Fatalf("New(%q) failed: %v", name, err)
	}
	return conv
}

func mustPrompt(t *testing.T, conv *Conversation) string {
	t.Helper()
	p, err := conv.Prompt()
	if err != nil {
		t.Fatalf("Prompt failed: %v", err)
	}
	return p
}

func TestAppendTurn_AddsUserAndPendingAssistant(t *testing.T) {
	conv := mustNew(t, "llama_3")

	if err := conv.AppendTurn("Describe this clip"); err != nil {
		t.Fatalf("AppendTurn failed: %v", err)
	}

	if len(conv.Turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(conv.Turns))
	}
	if conv.Turns[0].Role != conv.UserRole() || conv.Turns[0].Text() != "Describe this clip" {
		t.Errorf("unexpected user turn: %+v", conv.Turns[0])
	}
	if conv.Turns[1].Role != conv.AssistantRole() || conv.Turns[1].Message != nil {
		t.Errorf("expected pending assistant turn, got %+v", conv.Turns[1])
	}
	if !conv.Pending() {
		t.Error("expected conversation to be pending")
	}
}

func TestAppendTurn_RejectsWhilePending(t *testing.T) {
	conv := mustNew(t, "llama_3")
	_ = conv.AppendTurn("first")

	err := conv.AppendTurn("second")
	if !errors.Is(err, ErrTurnPending) {
		t.Fatalf("expected ErrTurnPending, got %v", err)
	}
	if len(conv.Turns) != 2 {
		t.Errorf("expected turns unchanged, got %d", len(conv.Turns))
	}
}

func TestCommitAndRollback(t *testing.T) {
	conv := mustNew(t, "vicuna_v1")

	if err := conv.Commit("nothing to commit"); !errors.Is(err, ErrNoPendingTurn) {
		t.Errorf("expected ErrNoPendingTurn, got %v", err)
	}
	if err := conv.Rollback(); !errors.Is(err, ErrNoPendingTurn) {
		t.Errorf("expected ErrNoPendingTurn, got %v", err)
	}

	_ = conv.AppendTurn("hi")
	if err := conv.Commit("hello"); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if conv.Pending() {
		t.Error("expected no pending turn after commit")
	}
	if conv.Exchanges() != 1 {
		t.Errorf("expected 1 exchange, got %d", conv.Exchanges())
	}

	_ = conv.AppendTurn("again")
	if q, ok := conv.PendingQuery(); !ok || q != "again" {
		t.Errorf("expected pending query 'again', got %q", q)
	}
	if err := conv.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if len(conv.Turns) != 2 || conv.Turns[1].Text() != "hello" {
		t.Errorf("rollback removed committed turns: %+v", conv.Turns)
	}
}

func TestStopString(t *testing.T) {
	tests := []struct {
		template string
		want     string
	}{
		{"llama_3", "<|eot_id|>"},
		{"vicuna_v1", "</s>"},
		{"llava_v1", "</s>"},
		{"llava_v0", "###"},
		{"llava_llama_2", "<s>"},
		{"mpt", "<|im_end|>"},
		{"plain", "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			conv := mustNew(t, tt.template)
			if got := conv.StopString(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPrompt_Styles(t *testing.T) {
	tests := []struct {
		template  string
		pending   string
		committed string
	}{
		{
			template:  "vicuna_v1",
			pending:   vicunaSystem + " USER: hi ASSISTANT:",
			committed: vicunaSystem + " USER: hi ASSISTANT: hello</s>",
		},
		{
			template:  "llava_v0",
			pending:   humanSystem + "###Human: hi###Assistant:",
			committed: humanSystem + "###Human: hi###Assistant: hello###",
		},
		{
			template: "llama_3",
			pending: "<|begin_of_text|><|start_header_id|>system<|end_header_id|>\n\n" + visionSystem + "<|eot_id|>" +
				"<|start_header_id|>user<|end_header_id|>\n\nhi<|eot_id|>" +
				"<|start_header_id|>assistant<|end_header_id|>\n\n",
			committed: "<|begin_of_text|><|start_header_id|>system<|end_header_id|>\n\n" + visionSystem + "<|eot_id|>" +
				"<|start_header_id|>user<|end_header_id|>\n\nhi<|eot_id|>" +
				"<|start_header_id|>assistant<|end_header_id|>\n\nhello<|eot_id|>",
		},
		{
			template:  "mpt",
			pending:   "<|im_start|>system\nA conversation between a user and an LLM-based AI assistant. The assistant gives helpful and honest answers.<|im_end|><|im_start|>user\nhi<|im_end|><|im_start|>assistant\n",
			committed: "<|im_start|>system\nA conversation between a user and an LLM-based AI assistant. The assistant gives helpful and honest answers.<|im_end|><|im_start|>user\nhi<|im_end|><|im_start|>assistant\nhello<|im_end|>",
		},
		{
			template:  "llava_llama_2",
			pending:   "[INST] <<SYS>>\n" + visionSystem + "\n<</SYS>>\n\nhi [/INST]",
			committed: "[INST] <<SYS>>\n" + visionSystem + "\n<</SYS>>\n\nhi [/INST] hello </s>",
		},
		{
			template:  "plain",
			pending:   "hi\n",
			committed: "hi\nhello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			conv := mustNew(t, tt.template)
			_ = conv.AppendTurn("hi")
			if got := mustPrompt(t, conv); got != tt.pending {
				t.Errorf("pending prompt mismatch\nwant %q\ngot  %q", tt.pending, got)
			}
			_ = conv.Commit("hello")
			if got := mustPrompt(t, conv); got != tt.committed {
				t.Errorf("committed prompt mismatch\nwant %q\ngot  %q", tt.committed, got)
			}
		})
	}
}

func TestPrompt_Llama2SecondTurn(t *testing.T) {
	conv := mustNew(t, "llava_llama_2")
	_ = conv.AppendTurn("hi")
	_ = conv.Commit("hello")
	_ = conv.AppendTurn("again")

	got := mustPrompt(t, conv)
	if !strings.HasSuffix(got, "hello </s><s>[INST] again [/INST]") {
		t.Errorf("unexpected second turn rendering: %q", got)
	}
	if strings.HasPrefix(got, "<s>") {
		t.Errorf("leading separator not trimmed: %q", got)
	}
}

func TestMessages(t *testing.T) {
	conv := mustNew(t, "llava_v0")
	_ = conv.AppendTurn("hi")
	_ = conv.Commit("hello")
	_ = conv.AppendTurn("again")

	msgs := conv.Messages()
	want := []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "again"},
	}
	if len(msgs) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(msgs))
	}
	for i := range want {
		if msgs[i] != want[i] {
			t.Errorf("message %d: expected %+v, got %+v", i, want[i], msgs[i])
		}
	}
}

func TestClone_IsIndependent(t *testing.T) {
	conv := mustNew(t, "llama_3")
	_ = conv.AppendTurn("hi")
	_ = conv.Commit("hello")

	clone := conv.Clone()
	*clone.Turns[1].Message = "changed"
	_ = clone.AppendTurn("more")

	if conv.Turns[1].Text() != "hello" {
		t.Errorf("clone shares message storage: %q", conv.Turns[1].Text())
	}
	if len(conv.Turns) != 2 {
		t.Errorf("clone shares turn slice: %d turns", len(conv.Turns))
	}
}

func TestCountPlaceholders(t *testing.T) {
	query := strings.Repeat(ImagePlaceholder+"\n", 3) + "What happens?"
	if got := CountPlaceholders(query); got != 3 {
		t.Errorf("expected 3 placeholders, got %d", got)
	}
	if got := CountPlaceholders("no images"); got != 0 {
		t.Errorf("expected 0 placeholders, got %d", got)
	}
}
