package validation

import "fmt"

const (
	phoneMessage    = "Please provide a valid Kenyan phone number (254xxxxxxxxx)"
	emailMessage    = "Please provide a valid email"
	passwordLength  = "Password must be at least 6 characters"
	passwordMixture = "Password must contain at least one uppercase letter, one lowercase letter, and one number"
)

// Registration checks a new account payload.
func Registration() RuleSet {
	return RuleSet{
		Body("firstName", "required", "First name is required"),
		Body("firstName", "omitempty,max=50", "First name cannot exceed 50 characters"),
		Body("lastName", "required", "Last name is required"),
		Body("lastName", "omitempty,max=50", "Last name cannot exceed 50 characters"),
		Body("email", "required,email", emailMessage),
		Body("password", "required,min=6", passwordLength),
		Body("password", "strongpw", passwordMixture),
		Body("phone", "kephone", phoneMessage),
	}
}

func Login() RuleSet {
	return RuleSet{
		Body("email", "required,email", emailMessage),
		Body("password", "required", "Password is required"),
	}
}

func RefreshToken() RuleSet {
	return RuleSet{
		Body("refreshToken", "required", "Refresh token is required"),
	}
}

func PasswordResetRequest() RuleSet {
	return RuleSet{
		Body("email", "required,email", emailMessage),
	}
}

func PasswordResetConfirm() RuleSet {
	return RuleSet{
		Body("token", "required", "Reset token is required"),
		Body("password", "required,min=6", passwordLength),
		Body("password", "strongpw", passwordMixture),
	}
}

func ProductCreation() RuleSet {
	return RuleSet{
		Body("name", "required", "Product name is required"),
		Body("name", "omitempty,max=200", "Product name cannot exceed 200 characters"),
		Body("description", "required", "Product description is required"),
		Body("description", "omitempty,max=2000", "Description cannot exceed 2000 characters"),
		Body("price", "isfloat,nummin=0", "Price must be a positive number"),
		Body("category", "required,uuid", "Please provide a valid category ID"),
		Body("subcategory", "required", "Subcategory is required"),
		Body("brand", "required", "Brand is required"),
		Body("stock", "isint,nummin=0", "Stock must be a non-negative integer"),
		Body("images", "array,min=1", "At least one product image is required"),
	}
}

func OrderCreation() RuleSet {
	return RuleSet{
		Body("items", "array,min=1", "Order must contain at least one item"),
		Body("items.*.product", "required,uuid", "Please provide valid product IDs"),
		Body("items.*.quantity", "isint,nummin=1", "Quantity must be at least 1"),
		Body("shippingAddress.street", "required", "Street address is required"),
		Body("shippingAddress.city", "required", "City is required"),
		Body("shippingAddress.county", "required", "County is required"),
		Body("shippingAddress.postalCode", "required", "Postal code is required"),
		Body("paymentMethod", "required,oneof=mpesa card cash", "Invalid payment method"),
	}
}

func ReviewCreation() RuleSet {
	return RuleSet{
		Body("rating", "isint,nummin=1,nummax=5", "Rating must be between 1 and 5"),
		Body("comment", "required", "Review comment is required"),
		Body("comment", "omitempty,max=1000", "Comment cannot exceed 1000 characters"),
	}
}

// Identifier checks that the named path parameter is a well-formed id.
func Identifier(param string) RuleSet {
	if param == "" {
		param = "id"
	}
	return RuleSet{
		Param(param, "required,uuid", fmt.Sprintf("Please provide a valid %s", param)),
	}
}

func Pagination() RuleSet {
	return RuleSet{
		Query("page", "omitempty,isint,nummin=1", "Page must be a positive integer"),
		Query("limit", "omitempty,isint,nummin=1,nummax=100", "Limit must be between 1 and 100"),
	}
}

func SearchQuery() RuleSet {
	return RuleSet{
		Query("q", "omitempty,max=100", "Search query must be between 1 and 100 characters"),
		Query("category", "omitempty,uuid", "Please provide a valid category ID"),
		Query("minPrice", "omitempty,isfloat,nummin=0", "Minimum price must be a positive number"),
		Query("maxPrice", "omitempty,isfloat,nummin=0", "Maximum price must be a positive number"),
		Query("sortBy", "omitempty,oneof=price rating createdAt sold", "Invalid sort field"),
		Query("sortOrder", "omitempty,oneof=asc desc", "Sort order must be asc or desc"),
	}
}
