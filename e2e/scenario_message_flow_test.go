package e2e

import (
	"encoding/json"
	"net/http"
	"testing"

	"chat-relay/domain/event"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type testMessageFlowSuite struct {
	BaseSuite
}

func TestMessageFlowSuite(t *testing.T) {
	suite.Run(t, &testMessageFlowSuite{})
}

type push struct {
	ChatID  string            `json:"chatId"`
	Message event.WireMessage `json:"message"`
}

func (s *testMessageFlowSuite) TestFullMessageFlow() {
	aliceID, aliceToken := s.RegisterUser("alice", "Alice Doe")
	bobID, bobToken := s.RegisterUser("bob", "Bob Roe")
	chatID := s.CreateChat("pair", aliceID, bobID)

	aliceWS := s.DialSocket(aliceToken)
	defer aliceWS.Close()
	bobWS := s.DialSocket(bobToken)
	defer bobWS.Close()

	// --- STEP 1: TEXT MESSAGE OVER THE SOCKET ---
	s.Run("Step 1: a socket send reaches the other member", func() {
		frame := []byte(`{"event":"NEW_MESSAGE","data":{"chatId":"` + string(chatID) +
			`","content":"hello bob","correlationId":"corr-1"}}`)
		s.Require().NoError(aliceWS.WriteMessage(websocket.TextMessage, frame))

		received := s.AwaitFrame(bobWS, event.NameNewMessage)

		var p push
		s.Require().NoError(json.Unmarshal(received.Data, &p))
		s.Require().Equal(string(chatID), p.ChatID)
		s.Require().Equal("hello bob", p.Message.Content)
		s.Require().Equal("Alice Doe", p.Message.Sender.Name)
		s.Require().Equal("corr-1", p.Message.CorrelationID)

		// The activity alert follows for the unread-badge path
		s.AwaitFrame(bobWS, event.NameNewMessageAlert)
	})

	// --- STEP 2: HISTORY CONSISTENCY ---
	s.Run("Step 2: the pushed record and the fetched record agree", func() {
		messages, total, pages := s.GetHistory(bobToken, chatID, 1)
		s.Require().Equal(1, total)
		s.Require().Equal(1, pages)
		s.Require().Len(messages, 1)
		s.Require().Equal("hello bob", messages[0].Content)
		s.Require().NotEmpty(messages[0].ID)
	})

	// --- STEP 3: ATTACHMENT ROUND-TRIP ---
	s.Run("Step 3: a multipart attachment send pushes NEW_ATTACHMENT", func() {
		png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
		resp := s.PostAttachment(bobToken, chatID, "check this", map[string][]byte{"photo.png": png})
		defer resp.Body.Close()
		s.Require().Equal(http.StatusCreated, resp.StatusCode)

		received := s.AwaitFrame(aliceWS, event.NameNewAttachment)

		var p push
		s.Require().NoError(json.Unmarshal(received.Data, &p))
		s.Require().Equal("check this", p.Message.Content)
		s.Require().Len(p.Message.Attachments, 1)
		s.Require().Contains(p.Message.Attachments[0], ".png")
	})

	// --- STEP 4: NON-MEMBER ISOLATION ---
	s.Run("Step 4: a non-member cannot read the chat", func() {
		_, eveToken := s.RegisterUser("eve", "Eve Snoop")
		req, err := http.NewRequest(http.MethodGet,
			s.server.URL+"/api/v1/message/"+string(chatID), nil)
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+eveToken)

		resp, err := http.DefaultClient.Do(req)
		s.Require().NoError(err)
		defer resp.Body.Close()
		s.Require().Equal(http.StatusForbidden, resp.StatusCode)
	})
}
