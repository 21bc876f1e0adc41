package auth

// MockStore is an in-memory auth store for testing.
type MockStore struct {
	tokens map[string]string
}

func NewMockStore() *MockStore {
	return &MockStore{tokens: make(map[string]string)}
}

func (m *MockStore) SetToken(account string, token string) error {
	m.tokens[NormalizeAccount(account)] = token
	return nil
}

func (m *MockStore) GetToken(account string) (string, error) {
	token, ok := m.tokens[NormalizeAccount(account)]
	if !ok {
		return "", ErrTokenNotFound
	}
	return token, nil
}

func (m *MockStore) DeleteToken(account string) error {
	key := NormalizeAccount(account)
	if _, ok := m.tokens[key]; !ok {
		return ErrTokenNotFound
	}
	delete(m.tokens, key)
	return nil
}
