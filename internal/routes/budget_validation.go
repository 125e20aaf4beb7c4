package routes

import (
	"nusantara-erp/internal/controllers"

	"github.com/labstack/echo/v4"
)

func runBudgetValidationRouter(secureGroup *echo.Group, budgetCtrl *controllers.BudgetValidationController) {
	bv := secureGroup.Group("/projects/:id/budget-validation")
	{
		bv.GET("", budgetCtrl.Comprehensive)
		bv.POST("/actual-costs", budgetCtrl.RecordActualCost)
		bv.GET("/variance-analysis", budgetCtrl.VarianceAnalysis)
		bv.GET("/summary", budgetCtrl.Summary)

		bv.GET("/additional-expenses", budgetCtrl.ListExpenses)
		bv.POST("/additional-expenses", budgetCtrl.CreateExpense)
		bv.PUT("/additional-expenses/:expenseId", budgetCtrl.UpdateExpense)
		bv.DELETE("/additional-expenses/:expenseId", budgetCtrl.DeleteExpense)
		bv.POST("/additional-expenses/:expenseId/approve", budgetCtrl.ApproveExpense)
		bv.POST("/additional-expenses/:expenseId/reject", budgetCtrl.RejectExpense)
	}
}
