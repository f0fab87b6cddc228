package service

import (
	"context"
	"fmt"
	"log"

	"github.com/xypp3/leetcode-battleroyal/internal/model"
	"github.com/xypp3/leetcode-battleroyal/internal/repository"
)

// QuestionService manages the immutable question bank.
type QuestionService struct {
	questionRepo repository.QuestionRepo
}

// NewQuestionService creates a new question service
func NewQuestionService(questionRepo repository.QuestionRepo) *QuestionService {
	return &QuestionService{questionRepo: questionRepo}
}

// Get returns one question by its opaque ID.
func (s *QuestionService) Get(ctx context.Context, id string) (*model.Question, error) {
	question, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if question == nil {
		return nil, ErrQuestionNotFound
	}
	return question, nil
}

// List returns the full bank.
func (s *QuestionService) List(ctx context.Context) ([]*model.Question, error) {
	return s.questionRepo.GetAll(ctx)
}

// Seed loads the default question bank. Idempotent: a non-empty bank is
// left untouched, so running the seed twice never duplicates entries.
func (s *QuestionService) Seed(ctx context.Context) error {
	count, err := s.questionRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count questions: %w", err)
	}
	if count > 0 {
		log.Printf("[Question] bank already seeded (%d questions)", count)
		return nil
	}

	for _, q := range defaultQuestions() {
		if err := s.questionRepo.Create(ctx, q); err != nil {
			return fmt.Errorf("failed to seed question %q: %w", q.Title, err)
		}
	}

	log.Printf("[Question] seeded %d questions", len(defaultQuestions()))
	return nil
}

func defaultQuestions() []*model.Question {
	return []*model.Question{
		{
			Title:        "Two Sum",
			Description:  "Given an array of integers nums and an integer target, return indices of the two numbers such that they add up to target.",
			Difficulty:   "Easy",
			FunctionName: "twoSum",
			Parameters:   []string{"nums", "target"},
			ReturnType:   "number[]",
			TestCases: []model.TestCase{
				{Input: []interface{}{[]interface{}{2, 7, 11, 15}, 9}, Expected: []interface{}{0, 1}},
				{Input: []interface{}{[]interface{}{3, 2, 4}, 6}, Expected: []interface{}{1, 2}},
				{Input: []interface{}{[]interface{}{3, 3}, 6}, Expected: []interface{}{0, 1}},
			},
			StarterCode: "function twoSum(nums, target) {\n    // Your code here\n    \n}",
		},
		{
			Title:        "Palindrome Number",
			Description:  "Given an integer x, return true if x is a palindrome, and false otherwise.",
			Difficulty:   "Easy",
			FunctionName: "isPalindrome",
			Parameters:   []string{"x"},
			ReturnType:   "boolean",
			TestCases: []model.TestCase{
				{Input: []interface{}{121}, Expected: true},
				{Input: []interface{}{-121}, Expected: false},
				{Input: []interface{}{10}, Expected: false},
			},
			StarterCode: "function isPalindrome(x) {\n    // Your code here\n    \n}",
		},
		{
			Title:        "Valid Parentheses",
			Description:  "Given a string s containing just the characters '(', ')', '{', '}', '[' and ']', determine if the input string is valid.",
			Difficulty:   "Easy",
			FunctionName: "isValid",
			Parameters:   []string{"s"},
			ReturnType:   "boolean",
			TestCases: []model.TestCase{
				{Input: []interface{}{"()"}, Expected: true},
				{Input: []interface{}{"()[]{}"}, Expected: true},
				{Input: []interface{}{"(]"}, Expected: false},
			},
			StarterCode: "function isValid(s) {\n    // Your code here\n    \n}",
		},
		{
			Title:        "Reverse Integer",
			Description:  "Given a signed 32-bit integer x, return x with its digits reversed.",
			Difficulty:   "Medium",
			FunctionName: "reverse",
			Parameters:   []string{"x"},
			ReturnType:   "number",
			TestCases: []model.TestCase{
				{Input: []interface{}{123}, Expected: 321},
				{Input: []interface{}{-123}, Expected: -321},
				{Input: []interface{}{120}, Expected: 21},
			},
			StarterCode: "function reverse(x) {\n    // Your code here\n    \n}",
		},
		{
			Title:        "Longest Common Prefix",
			Description:  "Write a function to find the longest common prefix string amongst an array of strings.",
			Difficulty:   "Easy",
			FunctionName: "longestCommonPrefix",
			Parameters:   []string{"strs"},
			ReturnType:   "string",
			TestCases: []model.TestCase{
				{Input: []interface{}{[]interface{}{"flower", "flow", "flight"}}, Expected: "fl"},
				{Input: []interface{}{[]interface{}{"dog", "racecar", "car"}}, Expected: ""},
				{Input: []interface{}{[]interface{}{"interspecies", "interstellar", "interstate"}}, Expected: "inters"},
			},
			StarterCode: "function longestCommonPrefix(strs) {\n    // Your code here\n    \n}",
		},
	}
}
