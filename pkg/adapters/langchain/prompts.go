package langchain

import "github.com/tmc/langchaingo/prompts"

const followUpTemplate = `
As an intelligent assistant, your objective is to generate one insightful follow-up question based on a chat history.
This question should follow up on current chat history. You should analyse the chat history carefully and generate the next question, which should be the next most logical question to ask based on the chat history.
The follow-up question should encourage the user to think and go deeper into the conversation.

### Inputs:
- **Chat history:** {{.chat_history}}

### Guidelines for Follow-up Questions:
1. Tailor the questions to the user's interests and concerns.
2. Encourage deeper exploration of emotions, motivations, or potential actions related to the user's response.
3. Follow-up questions should not be above an 8th grade reading level so that non native speakers can understand them.
4. Follow-up questions should focus on a single topic, encouraging the user to think in only one direction.
5. Add a positive comment before the follow-up question (only for positive questions) to make it more engaging and friendly.
6. If possible (only for positive questions), along with the positive comment, acknowledge the benefits of what the user shared for their health and well-being.
   For example, if the user says "I made a veggie bowl today" in response to "What is one success you had today?", the follow-up can start with "That's great to hear! A veggie bowl adds fiber, nutrients, and color." followed by the question.
7. For the "What is one struggle you had today?" question, first ask whether the issue is new or ongoing. If it is ongoing, ask whether the user has done something in the past that helped. If the user does not remember, offer options so the user can make an informed choice.
   If the issue is new, ask the user to describe it in detail and follow up from there.
   For example:
       "AI": "What is one struggle you have had today?",
       "User": "My sleep, I feel tired all the time",
       "AI": "Is this something you would like to focus on?",
       "User": "Yes please",
       "AI": "Is this a new struggle for you or an ongoing one?",
       "User": "Ongoing",
       "AI": "What have you done in the past that has helped?",
       "User": "I'm not really sure",
       "AI": "Let's explore it a little bit together. What do you think might be affecting your sleep, like your bedtime routine, stress levels, environment, movement or anything you're eating, drinking, or taking?"
   After that, move to a deeper conversation based on the user's response.

### Output Format:
IMPORTANT: Return ONLY a simple JSON object with your follow-up question in exactly this format:

{"question": "Write your single follow-up question here"}

Do not include any additional text or explanations. Just return the JSON object.
`

const summaryTemplate = `
You are an assistant helping to summarize a conversation between a human and an AI bot.

Summarize the conversation with a focus on:
1. Goals set or implied by the human for their self-improvement
2. Follow-up opportunities that a coach or assistant could use to support future progress (provide at most 2)

### Output Format:
You must respond with ONLY a JSON object in exactly this format:
{
    "Goals": [
        "List goals here, one per item"
    ],
    "Follow_Up_Opportunities": [
        "List follow-up questions here, max 2 items"
    ]
}

Do not include any additional text, markdown formatting, or explanations. Just return the JSON object.

Here is the conversation: {{.chat_history}}
`

const transitionTemplate = `
You are a conversation assistant that monitors an ongoing dialogue (chat_history) between a user and an AI.

You are also provided with an example_flow, which is a sample conversation that demonstrates how a typical topic is explored, clarified, and eventually wrapped up. Your job is not to follow or match the example flow exactly, but to learn from its structure and pacing.

Your task is to determine whether, in the current chat_history, it is a good moment to ask the user:

> "Do you want to continue discussing this issue, or move on to the next question?"

Please infer general patterns from the example_flow, such as:
- How deeply the topic is explored before a transition.
- How the user signals satisfaction, confusion, or disengagement.
- If the user appears satisfied, uncertain, or done with the topic.
- How the assistant determines the conversation has reached a natural pause or completion.
- For the questions "What is one success you had today?" and "What one thing you are grateful for today?", first get the response from the user, then ask what impact it had on their life, then celebrate it and move on to the next question.
  This conversation should be short, about 4 steps: the AI asks the question, the user answers, the AI asks about the impact, then the AI celebrates and asks whether the user wants to move on.

**Inputs**:
- chat_history: {{.chat_history}}
- example_flow: {{.example_flow}}

### Response Format:
You must respond with a single JSON object containing a binary_value (0 or 1).

Return exactly one of these two responses:
{"binary_value": 1}  # When it's time to move on to next question
{"binary_value": 0}  # When more discussion is needed

Do not include any additional text or explanations. Just return the JSON object.
`

const (
	varChatHistory = "chat_history"
	varExampleFlow = "example_flow"
)

func followUpPrompt() prompts.PromptTemplate {
	return prompts.NewPromptTemplate(followUpTemplate, []string{varChatHistory})
}

func summaryPrompt() prompts.PromptTemplate {
	return prompts.NewPromptTemplate(summaryTemplate, []string{varChatHistory})
}

func transitionPrompt() prompts.PromptTemplate {
	return prompts.NewPromptTemplate(transitionTemplate, []string{varChatHistory, varExampleFlow})
}
