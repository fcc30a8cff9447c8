package game

import "context"

var defaultPrompts = PromptSet{
	Speech: `{history}
你是{name},你的词汇为{word}。你可以猜测别人的词,你可以直接说出你的猜测结果
根据游戏规则和此前的对话，请直接输出你的发言,不需要输出你的名字（注意，你的描述应该言简意赅，并且严格模仿真实人类的描述语法/标点使用）:`,
	Vote: `{history}
你是{name}。永远不要投自己{name},并且不要被其他agent误导,保持自己的判断,并且根据其他agent的有效回复来判断卧底
从列表中选择你认为是卧底的人的名字：{choices}，然后直接返回名字:`,
}

// SeedAgents writes a fixed roster of test agents through the gateway.
// Existing records with the same ids are overwritten.
func SeedAgents(ctx context.Context, store AgentStore) error {
	seeds := []AgentProfile{
		{AgentID: "test_agent_1", Name: "测试Agent1", Score: 173.2, WinCount: 90, GameCount: 219},
		{AgentID: "test_agent_2", Name: "测试Agent2", Score: 185.5, WinCount: 94, GameCount: 180},
		{AgentID: "test_agent_3", Name: "测试Agent3", Score: 195.8, WinCount: 72, GameCount: 150},
		{AgentID: "test_agent_4", Name: "测试Agent4", Score: 200.0, WinCount: 50, GameCount: 100},
		{AgentID: "test_agent_5", Name: "测试Agent5", Score: 210.5, WinCount: 66, GameCount: 120},
		{AgentID: "test_agent_6", Name: "测试Agent6", Score: 220.8, WinCount: 78, GameCount: 130},
	}
	for i := range seeds {
		seeds[i].Prompts = defaultPrompts
		if err := store.SaveAgent(ctx, &seeds[i]); err != nil {
			return err
		}
	}
	return nil
}
