// Package agent implements the financial investment analyzer agent:
// a tool-calling LLM loop over the partner-search, trading-status,
// financial-metrics, and weather/time tools, with conversation memory
// for multi-turn chat.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sbalaji92/investlens/internal/llm"
	"github.com/sbalaji92/investlens/internal/tools"
)

// AnalyzerName identifies the agent in results and logs.
const AnalyzerName = "financial_investment_analyzer"

const analyzerRole = "Comprehensive financial analysis agent that finds contracted companies, " +
	"analyzes public trading status, and provides detailed financial metrics with " +
	"profit margins for investment decision-making."

const analyzerSystemPrompt = "You are a comprehensive financial analysis agent with the following capabilities:\n" +
	"1. Find contracted companies, partners, and suppliers for major tech companies using web search\n" +
	"2. Determine which companies are publicly traded and provide stock symbols\n" +
	"3. Get detailed financial metrics including market cap, revenue, profit margins, and key ratios\n" +
	"4. Calculate and analyze profit margins (gross, operating, net) for investment analysis\n" +
	"5. Provide weather and time information when needed\n\n" +
	"Use these tools to help users identify investment opportunities based on corporate relationships " +
	"and comprehensive financial analysis."

// Result holds the output of one agent turn.
type Result struct {
	AgentName string        `json:"agent_name"`
	Role      string        `json:"role"`
	Content   string        `json:"content"` // LLM-generated analysis text
	ToolCalls int           `json:"tool_calls"`
	Tokens    int           `json:"tokens"`
	Duration  time.Duration `json:"duration"`
	Messages  []llm.Message `json:"messages"` // full conversation of the turn
	Error     string        `json:"error,omitempty"`
}

// ── Memory ──

// Memory keeps conversation history in a sliding window. When the
// window overflows, the oldest messages are dropped.
type Memory struct {
	mu       sync.RWMutex
	messages []llm.Message
	maxSize  int
}

// NewMemory creates a conversation memory with the given window size.
func NewMemory(maxSize int) *Memory {
	if maxSize <= 0 {
		maxSize = 50
	}
	return &Memory{
		maxSize:  maxSize,
		messages: make([]llm.Message, 0, maxSize),
	}
}

// Add appends a message to the memory.
func (m *Memory) Add(msg llm.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	m.trim()
}

// AddAll appends multiple messages to the memory.
func (m *Memory) AddAll(msgs []llm.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msgs...)
	m.trim()
}

func (m *Memory) trim() {
	if len(m.messages) > m.maxSize {
		m.messages = m.messages[len(m.messages)-m.maxSize:]
	}
}

// Messages returns a copy of the current window.
func (m *Memory) Messages() []llm.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]llm.Message, len(m.messages))
	copy(result, m.messages)
	return result
}

// Size returns the number of messages currently in memory.
func (m *Memory) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

// Clear resets the memory.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = m.messages[:0]
}

// ── Analyzer ──

// Analyzer runs the tool-calling loop against the LLM provider.
type Analyzer struct {
	provider    llm.LLMProvider
	tools       []llm.Tool
	registry    *llm.ToolRegistry
	memory      *Memory
	opts        *llm.ChatOptions
	maxToolIter int
}

// Config configures an Analyzer.
type Config struct {
	Provider    llm.LLMProvider
	Toolkit     *tools.Toolkit
	ChatOptions *llm.ChatOptions
	MemorySize  int
	MaxToolIter int
}

// NewAnalyzer creates the analyzer agent with the toolkit's tools
// registered.
func NewAnalyzer(cfg Config) *Analyzer {
	if cfg.MaxToolIter <= 0 {
		cfg.MaxToolIter = 10
	}

	toolset := cfg.Toolkit.Tools()
	registry := llm.NewToolRegistry()
	for _, t := range toolset {
		registry.Register(t)
	}

	return &Analyzer{
		provider:    cfg.Provider,
		tools:       toolset,
		registry:    registry,
		memory:      NewMemory(cfg.MemorySize),
		opts:        cfg.ChatOptions,
		maxToolIter: cfg.MaxToolIter,
	}
}

// Name returns the agent's identifier.
func (a *Analyzer) Name() string { return AnalyzerName }

// Role returns the agent's role description.
func (a *Analyzer) Role() string { return analyzerRole }

// SystemPrompt returns the agent's system prompt.
func (a *Analyzer) SystemPrompt() string { return analyzerSystemPrompt }

// Tools returns the agent's available tools.
func (a *Analyzer) Tools() []llm.Tool { return a.tools }

// Memory returns the agent's conversation memory.
func (a *Analyzer) Memory() *Memory { return a.memory }

// Process executes a task with a fresh conversation.
func (a *Analyzer) Process(ctx context.Context, task string) (*Result, error) {
	return a.run(ctx, task, nil)
}

// Chat executes a task with the stored conversation history, so
// follow-up questions can reference earlier turns.
func (a *Analyzer) Chat(ctx context.Context, task string) (*Result, error) {
	return a.run(ctx, task, a.memory.Messages())
}

func (a *Analyzer) run(ctx context.Context, task string, history []llm.Message) (*Result, error) {
	start := time.Now()

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.SystemMessage(analyzerSystemPrompt))
	messages = append(messages, history...)
	messages = append(messages, llm.UserMessage(task))

	resp, finalMsgs, err := llm.RunToolLoop(ctx, a.provider, a.registry, messages, a.tools, a.opts, a.maxToolIter)
	if err != nil {
		return &Result{
			AgentName: AnalyzerName,
			Role:      analyzerRole,
			Error:     err.Error(),
			Duration:  time.Since(start),
			Messages:  finalMsgs,
		}, fmt.Errorf("analyzer: %w", err)
	}

	toolCallCount := 0
	for _, msg := range finalMsgs {
		toolCallCount += len(msg.ToolCalls)
	}

	// Store the turn, minus the system prompt and any history already
	// present, so Chat accumulates only new messages.
	a.memory.AddAll(finalMsgs[1+len(history):])
	a.memory.Add(llm.AssistantMessage(resp.Content))

	return &Result{
		AgentName: AnalyzerName,
		Role:      analyzerRole,
		Content:   resp.Content,
		ToolCalls: toolCallCount,
		Tokens:    resp.Usage.TotalTokens,
		Duration:  time.Since(start),
		Messages:  finalMsgs,
	}, nil
}
